package ingest

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/normalizer"
)

const detailContentSelector = "article .entry-content, article, main"

// enrich fetches the detail page of each new document and fills in body
// content and, when missing, a summary. Only undeduplicated documents are
// fetched. Width-bounded fan-out; a failed detail fetch leaves the
// listing-derived document intact.
func (p *Pipeline) enrich(ctx context.Context, docs []actions.Document, logger *zap.Logger) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.EnrichWidth)

	for i := range docs {
		doc := &docs[i]
		group.Go(func() error {
			if err := p.enrichOne(groupCtx, doc); err != nil {
				logger.Warn("detail enrichment failed",
					zap.String("url", doc.URL),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = group.Wait()
}

func (p *Pipeline) enrichOne(ctx context.Context, doc *actions.Document) error {
	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	resp, err := p.fetcher.Fetch(fetchCtx, actions.FetchRequest{URL: doc.URL})
	if err != nil {
		return err
	}

	body := detailBody(resp.Body)
	if body == "" {
		return nil
	}
	doc.Content = normalizer.CapRunes(body, normalizer.MaxExcerptRunes)
	if doc.Summary == "" {
		doc.Summary = normalizer.CapRunes(body, normalizer.MaxExcerptRunes)
	}
	return nil
}

// detailBody pulls the article text out of a detail page.
func detailBody(page []byte) string {
	root, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	for _, selector := range strings.Split(detailContentSelector, ", ") {
		node := root.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		if text := normalizer.CleanText(node.Text()); text != "" {
			return text
		}
	}
	return ""
}
