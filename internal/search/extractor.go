package search

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// resultContainer is the selector for one result block on the engine's
// page: a div bundling the result link and its heading.
const resultContainer = "div.g"

const redirectMarker = "?q="

// Extract parses an engine results page and returns up to maxResults
// (title, url) pairs in document order. Containers missing a heading or a
// link contribute nothing. A page with no containers yields an empty
// slice, not an error.
func Extract(html []byte, maxResults int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	// Non-nil so "no results" serializes as an empty list, not null.
	results := []Result{}
	doc.Find(resultContainer).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		href, ok := s.Find("a[href]").First().Attr("href")
		if !ok {
			return true
		}
		title := strings.TrimSpace(s.Find("h3").First().Text())
		if title == "" {
			return true
		}
		results = append(results, Result{Title: title, URL: normalizeHref(href)})
		return true
	})
	return results, nil
}

// normalizeHref strips the engine's redirect wrapping and tracking suffix
// from a raw href: everything after the first '&' is dropped, then the
// target is taken from after the last redirect marker when one is present.
func normalizeHref(href string) string {
	if i := strings.Index(href, "&"); i >= 0 {
		href = href[:i]
	}
	if i := strings.LastIndex(href, redirectMarker); i >= 0 {
		href = href[i+len(redirectMarker):]
	}
	return href
}
