package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"too many requests", &FetchError{Status: http.StatusTooManyRequests}, true},
		{"forbidden", &FetchError{Status: http.StatusForbidden}, true},
		{"server error", &FetchError{Status: http.StatusBadGateway}, true},
		{"not found", &FetchError{Status: http.StatusNotFound}, false},
		{"robots", &FetchError{Err: ErrDisallowed}, false},
		{"wrapped throttle", fmt.Errorf("search: %w", &FetchError{Status: 503}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("parse failure"), false},
	}
	for _, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Errorf("%s: IsTransient = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestShouldBackoff(t *testing.T) {
	for status, want := range map[int]bool{200: false, 404: false, 429: true, 500: true, 503: true} {
		if got := shouldBackoff(status); got != want {
			t.Errorf("shouldBackoff(%d) = %v, want %v", status, got, want)
		}
	}
}
