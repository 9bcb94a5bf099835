// Package detector decides when a fetch needs a real browser and when a
// response is an anti-bot interstitial rather than a listing.
package detector

import (
	"bytes"
	"strings"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

// Heuristic implements rule-based promotion and interstitial checks.
type Heuristic struct {
	BodyLengthThreshold int
	MinBodyBytes        int
}

// NewHeuristic creates a new detector. Zero thresholds get defaults.
func NewHeuristic(promotionThreshold, minBodyBytes int) *Heuristic {
	if promotionThreshold == 0 {
		promotionThreshold = 2048
	}
	if minBodyBytes == 0 {
		minBodyBytes = 512
	}
	return &Heuristic{
		BodyLengthThreshold: promotionThreshold,
		MinBodyBytes:        minBodyBytes,
	}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
}

var interstitialMarkers = [][]byte{
	[]byte("cf-challenge"),
	[]byte("just a moment"),
	[]byte("verify you are human"),
}

// ShouldPromote decides whether a headless fetch is required after a plain
// HTTP probe.
func (h *Heuristic) ShouldPromote(resp actions.FetchResponse) bool {
	if resp.StatusCode != 200 {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range spaMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// IsInterstitial reports whether the body looks like an anti-bot challenge
// page: implausibly short content or a known challenge marker.
func (h *Heuristic) IsInterstitial(body []byte) bool {
	if len(body) < h.MinBodyBytes {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range interstitialMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Treat the rest of the document as part of the malformed script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			// Script tag never closes; count the rest.
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
