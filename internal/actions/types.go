package actions

import (
	"fmt"
	"net/http"
	"time"
)

// DocumentType classifies a presidential action.
type DocumentType string

// Document type values persisted with each record.
const (
	TypeExecutiveOrder         DocumentType = "EXECUTIVE_ORDER"
	TypePresidentialMemorandum DocumentType = "PRESIDENTIAL_MEMORANDUM"
	TypeProclamation           DocumentType = "PROCLAMATION"
)

// RawDocument is a pre-normalization record pulled from the source listing.
// It lives only within a single pipeline run.
type RawDocument struct {
	Title      string
	DateText   string
	URL        string
	Content    string
	Excerpt    string
	NumberHint string
}

// Document is the canonical, persisted unit of the pipeline.
type Document struct {
	Identifier string       `json:"identifier"`
	Type       DocumentType `json:"type"`
	Title      string       `json:"title"`
	Date       time.Time    `json:"date"`
	URL        string       `json:"url"`
	Number     string       `json:"number,omitempty"`
	Summary    string       `json:"summary,omitempty"`
	Content    string       `json:"content,omitempty"`
	Categories []string     `json:"categories"`
	Agencies   []string     `json:"agencies"`
	IsNew      bool         `json:"-"`
}

// KeySet holds the dedup keys already present in the store. A candidate is
// a duplicate when either its URL or its identifier is known.
type KeySet struct {
	URLs        map[string]struct{}
	Identifiers map[string]struct{}
}

// NewKeySet returns an empty KeySet with both indexes allocated.
func NewKeySet() KeySet {
	return KeySet{
		URLs:        make(map[string]struct{}),
		Identifiers: make(map[string]struct{}),
	}
}

// Contains reports whether the document matches a known URL or identifier.
func (k KeySet) Contains(doc Document) bool {
	if _, ok := k.URLs[doc.URL]; ok {
		return true
	}
	_, ok := k.Identifiers[doc.Identifier]
	return ok
}

// FetchRequest captures everything needed to fetch one page.
type FetchRequest struct {
	URL             string
	WaitForSelector string
	Headers         http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}

// CycleReport summarizes one ingestion cycle for logs, metrics, and events.
type CycleReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Extracted  int       `json:"extracted"`
	Normalized int       `json:"normalized"`
	Known      int       `json:"known"`
	New        int       `json:"new"`
	Persisted  int       `json:"persisted"`
}

// RunStatus is the scheduler state snapshot exposed by the status endpoint.
type RunStatus struct {
	IsRunning           bool       `json:"isRunning"`
	LastRunTime         *time.Time `json:"lastRunTime,omitempty"`
	ConsecutiveFailures int        `json:"errorCount"`
	CheckInterval       string     `json:"checkInterval"`
}

// dateLayouts are the calendar formats observed on the source site, most
// common first.
var dateLayouts = []string{
	"January 2, 2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDate parses a source-formatted date string. Unparsable dates are an
// error; callers exclude those documents rather than guessing.
func ParseDate(text string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", text)
}
