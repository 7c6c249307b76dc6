package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

// ErrSourceUnavailable aborts a session whose transient browser errors
// outlasted the retry budget.
var ErrSourceUnavailable = errors.New("job source unavailable")

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second, Factor: 2}
}

// Delay is the wait before retry number attempt, counting from zero.
func (c RetryConfig) Delay(attempt int) time.Duration {
	factor := c.Factor
	if factor < 1 {
		factor = 1
	}
	d := float64(c.InitialDelay) * math.Pow(factor, float64(attempt))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// withRetry runs fn until it succeeds, fails permanently, or transient
// failures exhaust cfg.MaxRetries.
func withRetry(ctx context.Context, cfg RetryConfig, sleep sleepFunc, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !browser.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		observability.IncError(observability.ClassifyFetchError(err), "crawl")
		if attempt >= cfg.MaxRetries {
			return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrSourceUnavailable, op, attempt+1, err)
		}
		delay := cfg.Delay(attempt)
		slog.Warn("transient browser error, retrying", "op", op, "attempt", attempt+1, "delay", delay, "error", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}
