package extractor

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/potomac-labs/actions-ingest/internal/actions"
)

const (
	articleSelector = "article, li.wp-block-post, div.presidential-action"
	headingSelector = "h1, h2, h3, .wp-block-post-title"
	dateSelector    = "time, .date, .wp-block-post-date"
)

// extractHTML is the fallback strategy: query article-like containers and
// pull title, date, and primary link from each. Items missing any of the
// three are skipped, not errors.
func (e *Extractor) extractHTML(page []byte, baseURL string) []actions.RawDocument {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		e.logger.Debug("html parse failed", zap.Error(err))
		return nil
	}

	base, _ := url.Parse(baseURL)

	var docs []actions.RawDocument
	doc.Find(articleSelector).Each(func(_ int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find(headingSelector).First().Text())
		dateText := extractDateText(item)
		link := extractLink(item, base)
		if title == "" || dateText == "" || link == "" {
			return
		}
		docs = append(docs, actions.RawDocument{
			Title:    title,
			DateText: dateText,
			URL:      link,
			Excerpt:  strings.TrimSpace(item.Find("p").First().Text()),
		})
	})
	return docs
}

func extractDateText(item *goquery.Selection) string {
	dateEl := item.Find(dateSelector).First()
	if datetime, ok := dateEl.Attr("datetime"); ok && datetime != "" {
		return datetime
	}
	return strings.TrimSpace(dateEl.Text())
}

// extractLink prefers the heading link and falls back to the first anchor,
// resolving relative hrefs against the listing URL.
func extractLink(item *goquery.Selection, base *url.URL) string {
	href, ok := item.Find(headingSelector).First().Find("a").First().Attr("href")
	if !ok || href == "" {
		href, ok = item.Find("a").First().Attr("href")
		if !ok || href == "" {
			return ""
		}
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		parsed = base.ResolveReference(parsed)
	}
	if !parsed.IsAbs() {
		return ""
	}
	return parsed.String()
}
