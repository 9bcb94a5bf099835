// Package classifier tags free text with category and agency labels using
// fixed keyword tables.
package classifier

import (
	"regexp"
	"sort"
)

// Classifier performs whole-word, case-insensitive keyword matching. It is
// stateless after construction and safe for concurrent use.
type Classifier struct {
	categories []labelMatcher
	agencies   []labelMatcher
}

type labelMatcher struct {
	label    string
	patterns []*regexp.Regexp
}

// New compiles the built-in keyword tables.
func New() *Classifier {
	return &Classifier{
		categories: compileTable(categoryKeywords),
		agencies:   compileTable(agencyKeywords),
	}
}

func compileTable(table map[string][]string) []labelMatcher {
	labels := make([]string, 0, len(table))
	for label := range table {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	matchers := make([]labelMatcher, 0, len(labels))
	for _, label := range labels {
		patterns := make([]*regexp.Regexp, 0, len(table[label]))
		for _, keyword := range table[label] {
			// Whole-word match: "defense" must not match "undefended".
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(keyword)+`\b`))
		}
		matchers = append(matchers, labelMatcher{label: label, patterns: patterns})
	}
	return matchers
}

// Categories returns every category label with at least one keyword match.
// Zero matches is a valid empty result.
func (c *Classifier) Categories(text string) []string {
	return match(c.categories, text)
}

// Agencies returns every agency label with at least one keyword match.
func (c *Classifier) Agencies(text string) []string {
	return match(c.agencies, text)
}

func match(matchers []labelMatcher, text string) []string {
	if text == "" {
		return nil
	}
	var labels []string
	for _, m := range matchers {
		for _, pattern := range m.patterns {
			if pattern.MatchString(text) {
				labels = append(labels, m.label)
				break
			}
		}
	}
	return labels
}
