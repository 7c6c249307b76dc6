// Package browser is the crawl pipeline's view of the external job board:
// search, fetch one listing's detail page, and follow result pagination.
package browser

import (
	"context"
	"errors"

	"github.com/baxromumarov/job-autopilot/internal/httpx"
)

// ErrLastPage is returned by Paginate when no further result page exists.
var ErrLastPage = errors.New("no more result pages")

// Browser is the browsing capability consumed by crawl sessions. Errors for
// which IsTransient reports true may succeed on a later attempt.
type Browser interface {
	Search(ctx context.Context, q Query) (*ResultPage, error)
	FetchDetail(ctx context.Context, listingURL string) (*Detail, error)
	Paginate(ctx context.Context, page *ResultPage) (*ResultPage, error)
}

// Query is one search against the board for a single location.
type Query struct {
	Keywords        []string
	Location        string
	RadiusMiles     int
	Bands           []string
	WorkingPatterns []string
	ContractTypes   []string
}

// Listing is a result summary.
type Listing struct {
	Reference string
	Title     string
	URL       string
}

// ResultPage is one page of search results.
type ResultPage struct {
	Query    Query
	Number   int
	URL      string
	Listings []Listing
	NextURL  string
}

// Detail is the visible text captured from one listing's detail page, one
// field per configured selector, plus the whole page text.
type Detail struct {
	URL            string
	Reference      string
	Title          string
	Employer       string
	Location       string
	Salary         string
	ClosingDate    string
	Band           string
	ContractType   string
	WorkingPattern string
	Description    string
	Essential      []string
	Desirable      []string
	Text           string
}

// IsTransient reports whether err is a timeout, throttle or temporary block.
func IsTransient(err error) bool {
	return httpx.IsTransient(err)
}
