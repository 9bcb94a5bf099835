package extractor

import (
	"bytes"
	"encoding/json"
	"regexp"

	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// jsonMarkers locate embedded JSON payloads inside a rendered page. The
// source site has shipped several shapes over time: Next.js data scripts,
// WordPress block JSON, and inline post data assignments.
var jsonMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<script[^>]*id="__NEXT_DATA__"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)<script[^>]*type="application/json"[^>]*>(.*?)</script>`),
	regexp.MustCompile(`(?s)var\s+postData\s*=\s*(\{.*?\})\s*;`),
}

// extractStructured finds and parses an embedded JSON payload, then maps the
// most plausible post array inside it. Any failure here is non-fatal; the
// caller falls through to the HTML strategy.
func (e *Extractor) extractStructured(page []byte) []actions.RawDocument {
	payload := locatePayload(page)
	if payload == nil {
		return nil
	}
	entries := longestPostArray(payload, 0)
	if len(entries) == 0 {
		return nil
	}

	docs := make([]actions.RawDocument, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		doc := mapEntry(obj)
		if doc.Title == "" || doc.URL == "" {
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) > 0 {
		e.logger.Debug("structured extraction succeeded", zap.Int("items", len(docs)))
	}
	return docs
}

// locatePayload returns the first parseable JSON value on the page. A page
// that is itself a JSON document (hosted rendering API response) is used
// directly.
func locatePayload(page []byte) any {
	trimmed := bytes.TrimSpace(page)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var payload any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			return payload
		}
	}
	for _, marker := range jsonMarkers {
		match := marker.FindSubmatch(page)
		if match == nil {
			continue
		}
		var payload any
		if err := json.Unmarshal(bytes.TrimSpace(match[1]), &payload); err != nil {
			continue
		}
		return payload
	}
	return nil
}

const maxTraversalDepth = 6

// longestPostArray walks the payload shallowly and picks the longest array
// whose first element looks like a post record. This is a deliberate,
// documented heuristic: the payload shape drifts between site deployments,
// and the post list is reliably the largest array of titled objects. A nil
// return means "no structured data", never an error.
func longestPostArray(payload any, depth int) []any {
	if depth > maxTraversalDepth {
		return nil
	}
	var best []any
	consider := func(candidate []any) {
		if len(candidate) > len(best) && looksLikePostList(candidate) {
			best = candidate
		}
	}
	switch v := payload.(type) {
	case []any:
		consider(v)
		for _, item := range v {
			consider(longestPostArray(item, depth+1))
		}
	case map[string]any:
		for _, value := range v {
			consider(longestPostArray(value, depth+1))
		}
	}
	return best
}

func looksLikePostList(candidate []any) bool {
	if len(candidate) == 0 {
		return false
	}
	obj, ok := candidate[0].(map[string]any)
	if !ok {
		return false
	}
	for _, key := range []string{"title", "headline", "post_title"} {
		if _, present := obj[key]; present {
			return true
		}
	}
	return false
}

func mapEntry(obj map[string]any) actions.RawDocument {
	return actions.RawDocument{
		Title:      renderedString(firstOf(obj, "title", "headline", "post_title")),
		DateText:   renderedString(firstOf(obj, "date", "post_date", "published", "publishedAt")),
		URL:        renderedString(firstOf(obj, "url", "link", "permalink")),
		Content:    renderedString(firstOf(obj, "content", "text", "body")),
		Excerpt:    renderedString(firstOf(obj, "excerpt", "summary", "description")),
		NumberHint: renderedString(firstOf(obj, "executive_order_number", "number")),
	}
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := obj[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// renderedString unwraps source fields that may be either plain strings or
// WordPress-style {rendered, raw} pairs.
func renderedString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if rendered, ok := v["rendered"].(string); ok {
			return rendered
		}
		if raw, ok := v["raw"].(string); ok {
			return raw
		}
	case float64:
		return json.Number(jsonNumberString(v)).String()
	}
	return ""
}

func jsonNumberString(v float64) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
