// Package ingest orchestrates one ingestion cycle: fetch, extract,
// normalize, classify, dedup, enrich, persist.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/extractor"
	"github.com/potomac-labs/actions-ingest/internal/hash/sha256"
	"github.com/potomac-labs/actions-ingest/internal/normalizer"
	"github.com/potomac-labs/actions-ingest/internal/telemetry"
)

// Config controls pipeline behavior.
type Config struct {
	ListingURL      string
	WaitForSelector string
	FetchTimeout    time.Duration
	EnrichEnabled   bool
	EnrichWidth     int
	Topic           string
	ArchivePrefix   string
}

// Pipeline wires the ingestion stages together. The batch store, archive,
// and publisher are optional; nil disables the stage.
type Pipeline struct {
	fetcher    actions.Fetcher
	extractor  *extractor.Extractor
	normalizer *normalizer.Normalizer
	store      actions.DocumentStore
	batch      actions.BatchStore
	archive    actions.BlobStore
	publisher  actions.Publisher
	clock      actions.Clock
	ids        actions.IDGenerator
	retry      actions.RetryPolicy
	cfg        Config
	logger     *zap.Logger
}

// New constructs a Pipeline.
func New(
	fetcher actions.Fetcher,
	ext *extractor.Extractor,
	norm *normalizer.Normalizer,
	store actions.DocumentStore,
	batch actions.BatchStore,
	arch actions.BlobStore,
	publisher actions.Publisher,
	clock actions.Clock,
	ids actions.IDGenerator,
	retry actions.RetryPolicy,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 45 * time.Second
	}
	if cfg.EnrichWidth <= 0 {
		cfg.EnrichWidth = 5
	}
	return &Pipeline{
		fetcher:    fetcher,
		extractor:  ext,
		normalizer: norm,
		store:      store,
		batch:      batch,
		archive:    arch,
		publisher:  publisher,
		clock:      clock,
		ids:        ids,
		retry:      retry,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one ingestion cycle. Extraction completes before dedup, and
// dedup completes before persistence. An empty listing is a valid zero
// result, not an error.
func (p *Pipeline) Run(ctx context.Context) (actions.CycleReport, error) {
	runID, err := p.ids.NewID()
	if err != nil {
		return actions.CycleReport{}, fmt.Errorf("generate run id: %w", err)
	}
	report := actions.CycleReport{
		RunID:     runID,
		StartedAt: p.clock.Now(),
	}
	logger := p.logger.With(zap.String("run_id", runID))

	listing, err := p.fetchListing(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch listing: %w", err)
	}
	p.archiveSnapshot(ctx, runID, listing, logger)

	raw := p.extractor.Extract(listing.Body, p.cfg.ListingURL)
	report.Extracted = len(raw)
	telemetry.ObserveExtracted(len(raw))
	if len(raw) == 0 {
		report.FinishedAt = p.clock.Now()
		logger.Warn("listing produced no items")
		return report, nil
	}

	candidates := p.normalize(raw, logger)
	report.Normalized = len(candidates)

	known, err := p.store.KnownKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("load known keys: %w", err)
	}
	fresh, existing := Partition(candidates, known)
	report.Known = len(existing)
	report.New = len(fresh)
	logger.Info("dedup complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("new", len(fresh)),
		zap.Int("known", len(existing)),
	)

	if p.cfg.EnrichEnabled {
		p.enrich(ctx, fresh, logger)
	}

	persisted, err := p.store.InsertNew(ctx, fresh)
	if err != nil {
		return report, fmt.Errorf("persist documents: %w", err)
	}
	report.Persisted = persisted
	telemetry.ObservePersisted(persisted)

	if p.batch != nil && len(fresh) > 0 {
		if err := p.batch.PutBatch(ctx, fresh); err != nil {
			return report, fmt.Errorf("batch write: %w", err)
		}
	}

	report.FinishedAt = p.clock.Now()
	p.publishReport(ctx, report, logger)
	return report, nil
}

// fetchListing retrieves the listing page through the retry wrapper, with a
// fresh per-attempt timeout.
func (p *Pipeline) fetchListing(ctx context.Context) (actions.FetchResponse, error) {
	var resp actions.FetchResponse
	err := actions.Retry(ctx, p.retry, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()

		var fetchErr error
		resp, fetchErr = p.fetcher.Fetch(attemptCtx, actions.FetchRequest{
			URL:             p.cfg.ListingURL,
			WaitForSelector: p.cfg.WaitForSelector,
		})
		if fetchErr == nil {
			telemetry.ObserveFetch(fetchMode(resp), resp.Duration)
		}
		return fetchErr
	})
	if err != nil {
		return actions.FetchResponse{}, err
	}
	return resp, nil
}

func fetchMode(resp actions.FetchResponse) string {
	if resp.Rendered {
		return "rendered"
	}
	return "probe"
}

func (p *Pipeline) normalize(raw []actions.RawDocument, logger *zap.Logger) []actions.Document {
	candidates := make([]actions.Document, 0, len(raw))
	for _, item := range raw {
		doc, err := p.normalizer.Normalize(item)
		if err != nil {
			logger.Debug("document excluded", zap.String("url", item.URL), zap.Error(err))
			continue
		}
		candidates = append(candidates, doc)
	}
	return candidates
}

// archiveSnapshot is best-effort: a failed archive write never fails the
// cycle.
func (p *Pipeline) archiveSnapshot(ctx context.Context, runID string, listing actions.FetchResponse, logger *zap.Logger) {
	if p.archive == nil || len(listing.Body) == 0 {
		return
	}
	path := fmt.Sprintf("%s/%s/%s.html", p.cfg.ArchivePrefix, runID, sha256.Sum(listing.Body))
	uri, err := p.archive.PutObject(ctx, path, "text/html; charset=utf-8", listing.Body)
	if err != nil {
		logger.Warn("snapshot archive failed", zap.Error(err))
		return
	}
	if uri != "" {
		logger.Debug("snapshot archived", zap.String("uri", uri))
	}
}

// publishReport is best-effort: cycle completion events are advisory.
func (p *Pipeline) publishReport(ctx context.Context, report actions.CycleReport, logger *zap.Logger) {
	if p.publisher == nil || p.cfg.Topic == "" {
		return
	}
	if _, err := p.publisher.Publish(ctx, p.cfg.Topic, report); err != nil {
		logger.Warn("cycle event publish failed", zap.Error(err))
	}
}
