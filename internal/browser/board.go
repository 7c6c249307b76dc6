package browser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/baxromumarov/job-autopilot/internal/httpx"
	"github.com/baxromumarov/job-autopilot/internal/observability"
	"github.com/baxromumarov/job-autopilot/internal/textutil"
	"github.com/baxromumarov/job-autopilot/internal/urlutil"
)

// BoardConfig describes how to drive one job board's HTML search.
type BoardConfig struct {
	Name             string          `yaml:"name"`
	SearchURL        string          `yaml:"search_url"`
	UserAgent        string          `yaml:"user_agent"`
	RequestInterval  time.Duration   `yaml:"request_interval"`
	ReferencePattern string          `yaml:"reference_pattern"`
	Params           ParamNames      `yaml:"params"`
	Results          ResultSelectors `yaml:"results"`
	Detail           DetailSelectors `yaml:"detail"`
}

// ParamNames maps query fields to the board's query-string keys. Empty keys
// are not sent.
type ParamNames struct {
	Keywords       string `yaml:"keywords"`
	Location       string `yaml:"location"`
	Radius         string `yaml:"radius"`
	Band           string `yaml:"band"`
	WorkingPattern string `yaml:"working_pattern"`
	ContractType   string `yaml:"contract_type"`
}

// ResultSelectors locate listings inside a search result page. Link, Title
// and Reference are evaluated relative to each Item.
type ResultSelectors struct {
	Item          string `yaml:"item"`
	Link          string `yaml:"link"`
	Title         string `yaml:"title"`
	Reference     string `yaml:"reference"`
	ReferenceAttr string `yaml:"reference_attr"`
	Next          string `yaml:"next"`
}

// DetailSelectors locate the labelled fields of a detail page.
type DetailSelectors struct {
	Reference      string `yaml:"reference"`
	Title          string `yaml:"title"`
	Employer       string `yaml:"employer"`
	Location       string `yaml:"location"`
	Salary         string `yaml:"salary"`
	ClosingDate    string `yaml:"closing_date"`
	Band           string `yaml:"band"`
	ContractType   string `yaml:"contract_type"`
	WorkingPattern string `yaml:"working_pattern"`
	Description    string `yaml:"description"`
	Essential      string `yaml:"essential"`
	Desirable      string `yaml:"desirable"`
}

// BoardBrowser drives a server-rendered job board. Result pages go through
// the colly fetcher; detail pages through the robots-aware polite client.
type BoardBrowser struct {
	cfg       BoardConfig
	fetcher   *httpx.CollyFetcher
	client    *httpx.PoliteClient
	refFormat *regexp.Regexp
}

func NewBoardBrowser(cfg BoardConfig) (*BoardBrowser, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("board %q: search_url is required", cfg.Name)
	}
	if cfg.Results.Item == "" || cfg.Results.Link == "" {
		return nil, fmt.Errorf("board %q: results.item and results.link are required", cfg.Name)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "job-autopilot/1.0"
	}
	if cfg.RequestInterval <= 0 {
		cfg.RequestInterval = time.Second
	}

	var refFormat *regexp.Regexp
	if cfg.ReferencePattern != "" {
		re, err := regexp.Compile(cfg.ReferencePattern)
		if err != nil {
			return nil, fmt.Errorf("board %q: reference_pattern: %w", cfg.Name, err)
		}
		refFormat = re
	}

	// Transient failures are retried by the crawl session, so each layer
	// here makes a single attempt.
	client := httpx.NewPoliteClient(cfg.UserAgent, cfg.RequestInterval, 1)
	client.SetAttempts(1)

	return &BoardBrowser{
		cfg: cfg,
		fetcher: httpx.NewCollyFetcher(httpx.FetcherOptions{
			UserAgent: cfg.UserAgent,
			Every:     cfg.RequestInterval,
			Burst:     1,
			Attempts:  1,
		}),
		client:    client,
		refFormat: refFormat,
	}, nil
}

func (b *BoardBrowser) Search(ctx context.Context, q Query) (*ResultPage, error) {
	target, err := b.searchURL(q)
	if err != nil {
		return nil, err
	}
	page, err := b.fetchResults(ctx, target)
	if err != nil {
		return nil, err
	}
	page.Query = q
	page.Number = 1
	return page, nil
}

func (b *BoardBrowser) Paginate(ctx context.Context, page *ResultPage) (*ResultPage, error) {
	if page == nil || page.NextURL == "" {
		return nil, ErrLastPage
	}
	next, err := b.fetchResults(ctx, page.NextURL)
	if err != nil {
		return nil, err
	}
	next.Query = page.Query
	next.Number = page.Number + 1
	return next, nil
}

func (b *BoardBrowser) searchURL(q Query) (string, error) {
	u, err := url.Parse(b.cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	values := u.Query()
	p := b.cfg.Params
	set := func(key, val string) {
		if key != "" && val != "" {
			values.Set(key, val)
		}
	}
	add := func(key string, vals []string) {
		if key == "" {
			return
		}
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	set(p.Keywords, strings.Join(q.Keywords, " "))
	set(p.Location, q.Location)
	if q.RadiusMiles > 0 {
		set(p.Radius, strconv.Itoa(q.RadiusMiles))
	}
	add(p.Band, q.Bands)
	add(p.WorkingPattern, q.WorkingPatterns)
	add(p.ContractType, q.ContractTypes)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (b *BoardBrowser) fetchResults(ctx context.Context, target string) (*ResultPage, error) {
	page := &ResultPage{URL: target}
	sel := b.cfg.Results

	err := b.fetcher.Fetch(ctx, target, func(c *colly.Collector) {
		c.OnHTML(sel.Item, func(e *colly.HTMLElement) {
			link := e.DOM.Find(sel.Link).First()
			if link.Length() == 0 && e.DOM.Is(sel.Link) {
				link = e.DOM
			}
			href, ok := link.Attr("href")
			if !ok {
				return
			}
			abs := e.Request.AbsoluteURL(href)
			if abs == "" {
				return
			}

			title := textutil.CollapseSpace(link.Text())
			if sel.Title != "" {
				if t := textutil.CollapseSpace(e.DOM.Find(sel.Title).First().Text()); t != "" {
					title = t
				}
			}

			page.Listings = append(page.Listings, Listing{
				Reference: b.listingReference(e.DOM, abs),
				Title:     title,
				URL:       abs,
			})
		})
		if sel.Next != "" {
			c.OnHTML(sel.Next, func(e *colly.HTMLElement) {
				if page.NextURL != "" {
					return
				}
				if next := e.Request.AbsoluteURL(e.Attr("href")); next != "" && next != target {
					page.NextURL = next
				}
			})
		}
	})
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "browser")
		return nil, err
	}
	observability.IncPagesCrawled("search")
	return page, nil
}

func (b *BoardBrowser) listingReference(item *goquery.Selection, listingURL string) string {
	sel := b.cfg.Results
	if sel.ReferenceAttr != "" {
		node := item
		if sel.Reference != "" {
			node = item.Find(sel.Reference).First()
		}
		if v, ok := node.Attr(sel.ReferenceAttr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	} else if sel.Reference != "" {
		if v := textutil.CollapseSpace(item.Find(sel.Reference).First().Text()); v != "" {
			return v
		}
	}
	ref, err := urlutil.CanonicalReference(listingURL, b.refFormat)
	if err != nil {
		slog.Debug("listing reference not derivable", "url", listingURL, "error", err)
		return ""
	}
	return ref
}

func (b *BoardBrowser) FetchDetail(ctx context.Context, listingURL string) (*Detail, error) {
	body, err := b.client.Get(ctx, listingURL)
	if err != nil {
		observability.IncError(observability.ClassifyFetchError(err), "browser")
		return nil, err
	}
	observability.IncPagesCrawled("detail")

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		observability.IncError(observability.ErrorParsing, "browser")
		return nil, fmt.Errorf("parse detail %s: %w", listingURL, err)
	}
	return b.parseDetail(doc, listingURL), nil
}

func (b *BoardBrowser) parseDetail(doc *goquery.Document, listingURL string) *Detail {
	sel := b.cfg.Detail
	d := &Detail{
		URL:            listingURL,
		Reference:      fieldText(doc, sel.Reference),
		Title:          fieldText(doc, sel.Title),
		Employer:       fieldText(doc, sel.Employer),
		Location:       fieldText(doc, sel.Location),
		Salary:         fieldText(doc, sel.Salary),
		ClosingDate:    fieldText(doc, sel.ClosingDate),
		Band:           fieldText(doc, sel.Band),
		ContractType:   fieldText(doc, sel.ContractType),
		WorkingPattern: fieldText(doc, sel.WorkingPattern),
		Description:    blockText(doc, sel.Description),
		Essential:      itemTexts(doc, sel.Essential),
		Desirable:      itemTexts(doc, sel.Desirable),
	}
	if len(doc.Nodes) > 0 {
		d.Text = textutil.NodeText(doc.Nodes[0])
	}

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		hint, ok := parseJobPosting(s.Text())
		if !ok {
			return true
		}
		hint.fill(d)
		return false
	})

	if d.Reference == "" {
		if ref, err := urlutil.CanonicalReference(listingURL, b.refFormat); err == nil {
			d.Reference = ref
		}
	}
	return d
}

func fieldText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return textutil.CollapseSpace(doc.Find(selector).First().Text())
}

func blockText(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	s := doc.Find(selector).First()
	if len(s.Nodes) == 0 {
		return ""
	}
	return textutil.NodeText(s.Nodes[0])
}

func itemTexts(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if t := textutil.CollapseSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}
