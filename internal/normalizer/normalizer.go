// Package normalizer maps raw listing records into canonical documents.
package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kennygrant/sanitize"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
	"github.com/potomac-labs/actions-ingest/internal/classifier"
)

// MaxExcerptRunes caps summary and content derived from raw HTML. This is a
// display-size control, not a correctness requirement.
const MaxExcerptRunes = 1000

// numberPattern captures the order/memorandum number following the common
// title prefixes.
var numberPattern = regexp.MustCompile(`(?i)\b(?:executive\s+order|presidential\s+memorandum|eo)\b[\s#:]*(?:no\.?\s*)?(\d+)`)

// Normalizer builds canonical documents from raw ones. Identifier
// construction is deterministic so re-scrapes stay idempotent.
type Normalizer struct {
	floor      time.Time
	classifier *classifier.Classifier
	logger     *zap.Logger
}

// New builds a Normalizer enforcing the given ingestion floor date.
func New(floor time.Time, cls *classifier.Classifier, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		floor:      floor,
		classifier: cls,
		logger:     logger,
	}
}

// Normalize converts one raw record. Documents with unparsable dates or
// dates before the ingestion floor are excluded via an error; callers skip
// them rather than failing the run.
func (n *Normalizer) Normalize(raw actions.RawDocument) (actions.Document, error) {
	date, err := actions.ParseDate(raw.DateText)
	if err != nil {
		return actions.Document{}, fmt.Errorf("normalize %q: %w", raw.URL, err)
	}
	if date.Before(n.floor) {
		return actions.Document{}, fmt.Errorf("normalize %q: date %s is before the ingestion floor", raw.URL, date.Format("2006-01-02"))
	}

	title := CleanText(raw.Title)
	docType := resolveType(title, raw.URL)
	if docType == actions.TypeExecutiveOrder && !strings.Contains(strings.ToLower(title+raw.URL), "executive order") {
		// Ambiguous titles default to EXECUTIVE_ORDER; keep a signal in the
		// logs so the silent default stays visible.
		n.logger.Debug("document type defaulted", zap.String("url", raw.URL), zap.String("title", title))
	}

	number := extractNumber(title, raw.NumberHint)
	classifyText := strings.Join([]string{title, CleanText(raw.Content), CleanText(raw.Excerpt)}, " ")

	doc := actions.Document{
		Identifier: BuildIdentifier(docType, number, date),
		Type:       docType,
		Title:      title,
		Date:       date,
		URL:        raw.URL,
		Number:     number,
		Summary:    CapRunes(CleanText(raw.Excerpt), MaxExcerptRunes),
		Content:    CapRunes(CleanText(raw.Content), MaxExcerptRunes),
		Categories: n.classifier.Categories(classifyText),
		Agencies:   n.classifier.Agencies(classifyText),
		IsNew:      true,
	}
	return doc, nil
}

// BuildIdentifier derives the dedup key surrogate. It depends only on type,
// number, and date, never on insertion order or wall-clock time.
func BuildIdentifier(docType actions.DocumentType, number string, date time.Time) string {
	if number != "" {
		switch docType {
		case actions.TypeExecutiveOrder:
			return "EO-" + number
		case actions.TypePresidentialMemorandum:
			return "PM-" + number
		}
	}
	return fmt.Sprintf("%s-%s", docType, date.Format("2006-01-02"))
}

// resolveType infers the document type from title and URL text. Unresolved
// defaults to EXECUTIVE_ORDER.
func resolveType(title, url string) actions.DocumentType {
	text := strings.ToLower(title + " " + url)
	switch {
	case strings.Contains(text, "executive order") || strings.Contains(text, "executive-order"):
		return actions.TypeExecutiveOrder
	case strings.Contains(text, "memorandum"):
		return actions.TypePresidentialMemorandum
	case strings.Contains(text, "proclamation"):
		return actions.TypeProclamation
	default:
		return actions.TypeExecutiveOrder
	}
}

// extractNumber pulls the order number out of the title, falling back to
// the source-provided hint. Absence is not an error.
func extractNumber(title, hint string) string {
	if match := numberPattern.FindStringSubmatch(title); match != nil {
		return match[1]
	}
	return strings.TrimSpace(hint)
}

// CleanText strips HTML tags and collapses the surrounding whitespace.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	stripped := sanitize.HTML(text)
	return strings.Join(strings.Fields(stripped), " ")
}

// CapRunes truncates at a rune boundary so multi-byte characters survive.
func CapRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
