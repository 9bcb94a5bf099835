// Package extractor pulls raw listing records out of rendered pages.
//
// Two strategies run in order: structured extraction over embedded JSON
// payloads, then an HTML fallback over article-like containers. The first
// strategy to produce a non-empty result wins. Exhausting both is an empty
// result, not an error; an empty listing is valid.
package extractor

import (
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// Extractor converts one rendered page into an ordered RawDocument slice.
// Extraction is pure per page: identical input yields identical output.
type Extractor struct {
	floorYear int
	logger    *zap.Logger
}

// New builds an Extractor enforcing the given ingestion floor year.
func New(floorYear int, logger *zap.Logger) *Extractor {
	return &Extractor{
		floorYear: floorYear,
		logger:    logger,
	}
}

// Extract runs both strategies against the page.
func (e *Extractor) Extract(page []byte, baseURL string) []actions.RawDocument {
	docs := e.extractStructured(page)
	if len(docs) == 0 {
		docs = e.extractHTML(page, baseURL)
	}
	if len(docs) == 0 {
		e.logger.Warn("no listing items extracted", zap.String("base_url", baseURL))
		return nil
	}
	return e.applyFloor(docs)
}

// applyFloor drops entries whose parsed year is earlier than the floor.
// Entries with unparsable dates pass through; the normalizer excludes them.
func (e *Extractor) applyFloor(docs []actions.RawDocument) []actions.RawDocument {
	if e.floorYear <= 0 {
		return docs
	}
	kept := docs[:0]
	for _, doc := range docs {
		date, err := actions.ParseDate(doc.DateText)
		if err == nil && date.Year() < e.floorYear {
			continue
		}
		kept = append(kept, doc)
	}
	return kept
}
