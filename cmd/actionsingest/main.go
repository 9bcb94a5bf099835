// Package main wires together the ingestion service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/api"
	"github.com/potomac-labs/actions-ingest/internal/archive"
	gcsarchive "github.com/potomac-labs/actions-ingest/internal/archive/gcs"
	localarchive "github.com/potomac-labs/actions-ingest/internal/archive/local"
	"github.com/potomac-labs/actions-ingest/internal/classifier"
	"github.com/potomac-labs/actions-ingest/internal/clock/system"
	"github.com/potomac-labs/actions-ingest/internal/config"
	"github.com/potomac-labs/actions-ingest/internal/extractor"
	"github.com/potomac-labs/actions-ingest/internal/fetcher"
	collyfetcher "github.com/potomac-labs/actions-ingest/internal/fetcher/colly"
	"github.com/potomac-labs/actions-ingest/internal/fetcher/detector"
	headlessfetcher "github.com/potomac-labs/actions-ingest/internal/fetcher/headless"
	renderedfetcher "github.com/potomac-labs/actions-ingest/internal/fetcher/rendered"
	"github.com/potomac-labs/actions-ingest/internal/id/uuid"
	"github.com/potomac-labs/actions-ingest/internal/ingest"
	"github.com/potomac-labs/actions-ingest/internal/logging"
	"github.com/potomac-labs/actions-ingest/internal/normalizer"
	pubsubpublisher "github.com/potomac-labs/actions-ingest/internal/publisher/pubsub"
	"github.com/potomac-labs/actions-ingest/internal/scheduler"
	"github.com/potomac-labs/actions-ingest/internal/store/postgres"
	redisstore "github.com/potomac-labs/actions-ingest/internal/store/redis"
	"github.com/potomac-labs/actions-ingest/internal/telemetry"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	pageFetcher, err := buildFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	store, err := postgres.NewDocumentStore(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, logger.Named("postgres"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	var batch actions.BatchStore
	if cfg.Cache.Enabled {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Warn("redis close failed", zap.Error(closeErr))
			}
		}()
		batchStore, err := redisstore.New(client, cfg.Cache.ChunkSize, logger.Named("redis"))
		if err != nil {
			return fmt.Errorf("build batch store: %w", err)
		}
		batch = batchStore
	}

	blobStore, err := buildArchive(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	var publisher actions.Publisher
	if cfg.Events.Provider == "pubsub" {
		ps, err := pubsubpublisher.New(ctx, cfg.Events.ProjectID, cfg.Events.TopicName)
		if err != nil {
			return fmt.Errorf("build publisher: %w", err)
		}
		defer ps.Close()
		publisher = ps
	}

	floor, err := cfg.FloorTime()
	if err != nil {
		return fmt.Errorf("parse floor date: %w", err)
	}
	clock := system.New()
	pipeline := ingest.New(
		pageFetcher,
		extractor.New(floor.Year(), logger.Named("extractor")),
		normalizer.New(floor, classifier.New(), logger.Named("normalizer")),
		store,
		batch,
		blobStore,
		publisher,
		clock,
		uuid.New(),
		actions.NewExponentialRetryPolicy(
			cfg.HTTP.MaxRetries,
			time.Duration(cfg.HTTP.BackoffInitialMs)*time.Millisecond,
			time.Duration(cfg.HTTP.BackoffMaxMs)*time.Millisecond,
		),
		ingest.Config{
			ListingURL:      cfg.Source.ListingURL,
			WaitForSelector: cfg.Source.WaitForSelector,
			FetchTimeout:    cfg.FetchTimeout(),
			EnrichEnabled:   cfg.Enrichment.Enabled,
			EnrichWidth:     cfg.Enrichment.Width,
			Topic:           cfg.Events.TopicName,
			ArchivePrefix:   cfg.Archive.Prefix,
		},
		logger.Named("ingest"),
	)

	sched := scheduler.New(pipeline, scheduler.Config{
		Interval:         cfg.CheckInterval(),
		FailureThreshold: cfg.Scheduler.FailureThreshold,
	}, clock, logger.Named("scheduler"))
	if cfg.Scheduler.AutoStart {
		sched.Start(ctx)
	}

	apiServer := api.NewServer(sched, clock, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

// buildFetcher selects the page retrieval strategy from config: a plain
// probe, a probe that promotes to headless Chrome, or a hosted rendering
// API.
func buildFetcher(cfg config.Config, logger *zap.Logger) (actions.Fetcher, error) {
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	switch cfg.Fetcher.Provider {
	case "probe":
		return probe, nil
	case "headless":
		headless, err := headlessfetcher.New(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Source.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			MinBodyBytes:      cfg.Headless.MinBodyBytes,
		})
		if err != nil {
			return nil, err
		}
		detect := detector.NewHeuristic(cfg.Headless.PromotionThreshold, cfg.Headless.MinBodyBytes)
		return fetcher.NewPromoting(probe, headless, detect, logger.Named("fetcher")), nil
	case "rendered":
		return renderedfetcher.New(renderedfetcher.Config{
			Endpoint: cfg.Rendering.Endpoint,
			APIKey:   cfg.Rendering.APIKey,
			Timeout:  time.Duration(cfg.Rendering.TimeoutSeconds) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown fetcher provider %q", cfg.Fetcher.Provider)
	}
}

func buildArchive(ctx context.Context, cfg config.Config) (actions.BlobStore, error) {
	switch cfg.Archive.Provider {
	case "", "noop":
		return archive.Noop{}, nil
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsarchive.New(client, gcsarchive.Config{Bucket: cfg.Archive.GCSBucket})
	case "local":
		return localarchive.New(cfg.Archive.BaseDir)
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Archive.Provider)
	}
}
