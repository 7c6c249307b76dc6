package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 4 << 20

// PoliteClient enforces per-host rate limits, robots.txt rules, and polite retries.
type PoliteClient struct {
	client      *http.Client
	ua          string
	every       time.Duration
	burst       int
	attempts    int
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.RobotsData
	mu          sync.Mutex
}

func NewPoliteClient(userAgent string, every time.Duration, burst int) *PoliteClient {
	if every <= 0 {
		every = time.Second
	}
	if burst <= 0 {
		burst = 2
	}
	return &PoliteClient{
		client:      &http.Client{Timeout: 15 * time.Second},
		ua:          userAgent,
		every:       every,
		burst:       burst,
		attempts:    3,
		limiters:    map[string]*rate.Limiter{},
		robotsCache: map[string]*robotstxt.RobotsData{},
	}
}

// SetAttempts sets how many times Do tries a request that gets 429 or 503.
// One disables retries so the caller's own policy decides.
func (p *PoliteClient) SetAttempts(n int) {
	if n < 1 {
		n = 1
	}
	p.attempts = n
}

func (p *PoliteClient) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Every(p.every), p.burst)
	p.limiters[host] = l
	return l
}

// NewRequest builds an HTTP GET request with context and a safe URL defaulting to https.
func NewRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

func (p *PoliteClient) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host
	p.mu.Lock()
	if data, ok := p.robotsCache[host]; ok {
		p.mu.Unlock()
		return data, nil
	}
	p.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.ua)

	if err := p.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.robotsCache[host] = data
	p.mu.Unlock()
	return data, nil
}

// Get fetches rawURL and returns its body. Non-2xx responses and transport
// failures come back as *FetchError.
func (p *PoliteClient) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := NewRequest(ctx, rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	resp, err := p.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: req.URL.String(), Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: req.URL.String(), Status: resp.StatusCode, Err: err}
	}
	return body, nil
}

// Do executes the request respecting robots.txt and rate limits.
func (p *PoliteClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.ua)
	}

	u := req.URL
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	if ok := p.allowed(ctx, u, req.Method); !ok {
		return nil, &FetchError{URL: u.String(), Err: ErrDisallowed}
	}

	limiter := p.limiterFor(u.Hostname())

	var lastErr error
	status := 0
	for attempt := 0; attempt < p.attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			status = resp.StatusCode
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			resp.Body.Close()
			if attempt == p.attempts-1 {
				break
			}
			backoff := time.Duration(500*(1<<attempt)) * time.Millisecond
			if err := SleepWithContext(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	if lastErr == nil {
		lastErr = errors.New("polite client: failed without error")
	}
	return nil, &FetchError{URL: u.String(), Status: status, Err: lastErr}
}

func (p *PoliteClient) allowed(ctx context.Context, u *url.URL, method string) bool {
	if !strings.EqualFold(method, http.MethodGet) && !strings.EqualFold(method, http.MethodHead) {
		return false
	}
	data, err := p.robotsFor(ctx, u)
	if err != nil {
		return true // fail open to avoid blocking everything
	}
	group := data.FindGroup(p.ua)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}
