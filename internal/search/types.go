// Package search implements the result-aggregation pipeline: fetching
// engine result pages, extracting results from their HTML, retrying
// transient failures, and fanning out the general and archive-scoped
// searches.
package search

// Result is a single extracted search result.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Request captures one inbound aggregation request.
type Request struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

// Response pairs the unrestricted results with the archive-scoped ones.
type Response struct {
	GlobalResults  []Result `json:"global_results"`
	ArchiveResults []Result `json:"archive_results"`
}

// Page is the raw outcome of a single fetch attempt.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}
