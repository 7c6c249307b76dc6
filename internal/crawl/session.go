// Package crawl runs search sessions against the job board for each owner
// profile and feeds every listing through extraction, eligibility, dedup
// and scheduling.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/core"
	"github.com/baxromumarov/job-autopilot/internal/dedup"
	"github.com/baxromumarov/job-autopilot/internal/extract"
	"github.com/baxromumarov/job-autopilot/internal/httpx"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

// Extractor turns a detail page into a Result. *extract.Pipeline is the
// production implementation.
type Extractor interface {
	Extract(ctx context.Context, d *browser.Detail, now time.Time) extract.Result
}

type Config struct {
	// MaxResults caps the listings processed per location search.
	MaxResults int
	// PolitenessDelay is the minimum gap between successive result page
	// requests, shared by every session on this Session value.
	PolitenessDelay time.Duration
	Retry           RetryConfig
}

func DefaultConfig() Config {
	return Config{MaxResults: 100, PolitenessDelay: 2 * time.Second, Retry: DefaultRetryConfig()}
}

// Summary counts what one session did.
type Summary struct {
	Owner      int64                     `json:"owner"`
	Seen       int                       `json:"seen"`
	Extracted  int                       `json:"extracted"`
	Failed     int                       `json:"failed"`
	Rejected   map[core.RejectReason]int `json:"rejected"`
	Duplicates int                       `json:"duplicates"`
	Queued     int                       `json:"queued"`
	Duration   time.Duration             `json:"duration"`
}

// Session is safe for concurrent use; concurrent runs share its
// politeness limiter.
type Session struct {
	browser   browser.Browser
	extractor Extractor
	dedup     *dedup.Deduplicator
	cfg       Config
	limiter   *rate.Limiter
	now       func() time.Time
	sleep     sleepFunc
}

func NewSession(b browser.Browser, ex Extractor, d *dedup.Deduplicator, cfg Config) *Session {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	limit := rate.Inf
	if cfg.PolitenessDelay > 0 {
		limit = rate.Every(cfg.PolitenessDelay)
	}
	return &Session{
		browser:   b,
		extractor: ex,
		dedup:     d,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
		sleep:     httpx.SleepWithContext,
	}
}

// WithClock replaces the session's time source.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.now = now
	return s
}

// Run searches every profile location and processes the listings in order.
// Per-listing extraction failures and permanent detail errors are counted
// and skipped. Exhausted transient errors abort with ErrSourceUnavailable;
// persistence errors abort with the store's error.
func (s *Session) Run(ctx context.Context, profile model.SearchProfile) (Summary, error) {
	start := time.Now()
	sum := Summary{Owner: profile.OwnerID, Rejected: map[core.RejectReason]int{}}

	err := s.run(ctx, profile, &sum)
	sum.Duration = time.Since(start)
	observability.ObserveSession(sum.Duration.Seconds(), err != nil)

	log := slog.With("owner", profile.OwnerID, "seen", sum.Seen, "extracted", sum.Extracted,
		"failed", sum.Failed, "duplicates", sum.Duplicates, "queued", sum.Queued)
	if err != nil {
		log.Error("crawl session aborted", "error", err)
		return sum, err
	}
	log.Info("crawl session complete", "duration", sum.Duration)
	return sum, nil
}

func (s *Session) run(ctx context.Context, profile model.SearchProfile, sum *Summary) error {
	for _, location := range profile.Locations {
		q := browser.Query{
			Keywords:        profile.Keywords,
			Location:        location,
			RadiusMiles:     profile.RadiusMiles,
			Bands:           profile.Bands,
			WorkingPatterns: profile.WorkingPatterns,
			ContractTypes:   profile.ContractTypes,
		}
		if err := s.search(ctx, profile, q, sum); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) search(ctx context.Context, profile model.SearchProfile, q browser.Query, sum *Summary) error {
	var page *browser.ResultPage
	err := s.politely(ctx, "search "+q.Location, func() (err error) {
		page, err = s.browser.Search(ctx, q)
		return err
	})
	if err != nil {
		return err
	}

	processed := 0
	for {
		for _, listing := range page.Listings {
			if processed >= s.cfg.MaxResults {
				return nil
			}
			processed++
			if err := s.process(ctx, profile, listing, sum); err != nil {
				return err
			}
		}
		if processed >= s.cfg.MaxResults {
			return nil
		}

		current := page
		err := s.politely(ctx, fmt.Sprintf("paginate %s page %d", q.Location, current.Number+1), func() (err error) {
			page, err = s.browser.Paginate(ctx, current)
			return err
		})
		if errors.Is(err, browser.ErrLastPage) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// politely waits for the politeness limiter, then runs fn under the retry
// policy.
func (s *Session) politely(ctx context.Context, op string, fn func() error) error {
	return withRetry(ctx, s.cfg.Retry, s.sleep, op, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn()
	})
}

func (s *Session) process(ctx context.Context, profile model.SearchProfile, listing browser.Listing, sum *Summary) error {
	sum.Seen++
	observability.IncListingsSeen()
	log := slog.With("owner", profile.OwnerID, "url", listing.URL)

	var detail *browser.Detail
	err := withRetry(ctx, s.cfg.Retry, s.sleep, "detail "+listing.URL, func() (err error) {
		detail, err = s.browser.FetchDetail(ctx, listing.URL)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSourceUnavailable) || ctx.Err() != nil {
			return err
		}
		sum.Failed++
		log.Warn("skipping listing, detail unavailable", "error", err)
		return nil
	}
	// The result page reference is the key search and detail agree on.
	if listing.Reference != "" {
		detail.Reference = listing.Reference
	}
	if detail.Title == "" {
		detail.Title = listing.Title
	}

	now := s.now()
	res := s.extractor.Extract(ctx, detail, now)
	if !res.OK() {
		sum.Failed++
		observability.IncError(observability.ErrorExtraction, "crawl")
		log.Warn("skipping listing, extraction failed", "stage", res.Stage, "field", res.Failure.Field, "reason", res.Failure.Reason)
		return nil
	}
	sum.Extracted++
	observability.IncJobsExtracted()
	job := res.Job

	verdict := core.CheckEligibility(job, profile, now)
	if !verdict.Accepted {
		sum.Rejected[verdict.Reason]++
		observability.IncRejection(string(verdict.Reason))
		log.Debug("listing not eligible", "reference", job.Reference, "reason", verdict.Reason)
		return nil
	}

	out, err := s.dedup.Admit(ctx, job, profile.OwnerID, func(j model.JobRecord) model.Application {
		return core.Plan(j, profile, now)
	})
	if err != nil {
		observability.IncError(observability.ErrorStore, "crawl")
		return fmt.Errorf("persist %s: %w", job.Reference, err)
	}
	if out.Duplicate {
		sum.Duplicates++
		observability.IncDuplicates()
		return nil
	}
	sum.Queued++
	observability.IncApplicationsQueued()
	log.Info("application queued",
		"reference", job.Reference,
		"priority", out.Application.Priority,
		"submit_at", out.Application.ScheduledSubmitAt,
	)
	return nil
}
