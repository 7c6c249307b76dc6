package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// ErrDisallowed is returned when robots.txt forbids the request.
var ErrDisallowed = errors.New("blocked by robots.txt")

// FetchError carries the HTTP status of a failed fetch. Status is 0 when the
// request never produced a response.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the same request later may succeed.
func (e *FetchError) Transient() bool {
	switch {
	case e.Status == http.StatusTooManyRequests,
		e.Status == http.StatusForbidden,
		e.Status == http.StatusRequestTimeout,
		e.Status >= 500 && e.Status <= 599:
		return true
	case e.Status == 0:
		return e.Err == nil || IsTransient(e.Err)
	}
	return false
}

// IsTransient classifies err as a timeout, throttle or temporary block.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisallowed) || errors.Is(err, colly.ErrRobotsTxtBlocked) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

func shouldBackoff(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status >= 500 && status <= 599 {
		return true
	}
	return false
}
