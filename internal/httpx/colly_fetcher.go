package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// FetcherOptions tunes a CollyFetcher. Zero values fall back to defaults.
type FetcherOptions struct {
	UserAgent string
	Timeout   time.Duration
	Every     time.Duration
	Burst     int
	Attempts  int
}

// CollyFetcher wraps Colly for polite HTML fetching and CSS-based parsing.
type CollyFetcher struct {
	userAgent    string
	timeout      time.Duration
	attempts     int
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	hosts        map[string]*hostPolicy
}

type hostPolicy struct {
	limiter     *rate.Limiter
	nextAllowed time.Time
	mu          sync.Mutex
}

func NewCollyFetcher(opts FetcherOptions) *CollyFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = "job-autopilot/1.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Every <= 0 {
		opts.Every = time.Second
	}
	if opts.Burst <= 0 {
		opts.Burst = 2
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	return &CollyFetcher{
		userAgent:    opts.UserAgent,
		timeout:      opts.Timeout,
		attempts:     opts.Attempts,
		defaultRate:  rate.Every(opts.Every),
		defaultBurst: opts.Burst,
		hosts:        make(map[string]*hostPolicy),
	}
}

// Fetch requests rawURL once the host policy allows it. register attaches
// the OnHTML callbacks that read the page. Failures come back as *FetchError.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, register func(*colly.Collector)) error {
	_, err := f.fetchWithRetry(ctx, rawURL, register)
	return err
}

func (f *CollyFetcher) fetchWithRetry(ctx context.Context, rawURL string, register func(*colly.Collector)) (int, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	host := hostKey(target)

	var lastErr error
	var status int
	for attempt := 0; attempt < f.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := f.waitForHost(ctx, host); err != nil {
			return 0, err
		}
		status, lastErr = f.fetchOnce(ctx, target, register)
		if lastErr == nil {
			return status, nil
		}
		if errors.Is(lastErr, colly.ErrRobotsTxtBlocked) {
			return status, &FetchError{URL: target, Status: status, Err: ErrDisallowed}
		}
		if !shouldBackoff(status) {
			break
		}
		f.applyBackoff(host, attempt)
	}

	if lastErr == nil {
		lastErr = errors.New("colly fetch failed")
	}
	return status, &FetchError{URL: target, Status: status, Err: lastErr}
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, register func(*colly.Collector)) (int, error) {
	c := f.newCollector()
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	if err := c.Request(http.MethodGet, target, nil, collyCtx, nil); err != nil {
		return status, err
	}
	if reqErr != nil {
		return status, reqErr
	}
	if status >= 400 {
		return status, fmt.Errorf("status %d", status)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, nil
}

func (f *CollyFetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.IgnoreRobotsTxt = false
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		ctx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if reqCtx, ok := v.(context.Context); ok {
				ctx = reqCtx
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

func (f *CollyFetcher) waitForHost(ctx context.Context, host string) error {
	policy := f.hostPolicy(host)
	if err := policy.waitBackoff(ctx); err != nil {
		return err
	}
	return policy.limiter.Wait(ctx)
}

func (f *CollyFetcher) hostPolicy(host string) *hostPolicy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getOrCreatePolicyLocked(normalizeHost(host))
}

func (f *CollyFetcher) getOrCreatePolicyLocked(host string) *hostPolicy {
	if host == "" {
		host = "default"
	}
	if policy, ok := f.hosts[host]; ok {
		return policy
	}
	policy := &hostPolicy{
		limiter: rate.NewLimiter(f.defaultRate, f.defaultBurst),
	}
	f.hosts[host] = policy
	return policy
}

func (f *CollyFetcher) applyBackoff(host string, attempt int) {
	if attempt < 0 {
		attempt = 0
	}
	policy := f.hostPolicy(host)
	delay := time.Duration(500*(1<<attempt)) * time.Millisecond
	policy.mu.Lock()
	next := time.Now().Add(delay)
	if next.After(policy.nextAllowed) {
		policy.nextAllowed = next
	}
	policy.mu.Unlock()
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	return normalizeHost(u.Hostname())
}

// SleepWithContext waits for d or until ctx is done.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *hostPolicy) waitBackoff(ctx context.Context) error {
	for {
		p.mu.Lock()
		next := p.nextAllowed
		p.mu.Unlock()
		now := time.Now()
		if !now.Before(next) {
			return nil
		}
		if err := SleepWithContext(ctx, next.Sub(now)); err != nil {
			return err
		}
	}
}
