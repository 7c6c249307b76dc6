package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/baxromumarov/job-autopilot/internal/httpx"
)

const (
	ErrorNetwork    = "network"
	ErrorParsing    = "parsing"
	ErrorExtraction = "extraction"
	ErrorAI         = "ai"
	ErrorRateLimit  = "rate_limit"
	ErrorBlocked    = "blocked"
	ErrorStore      = "store"
	ErrorNotify     = "notify"
	ErrorUnknown    = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, httpx.ErrDisallowed) {
		return ErrorBlocked
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status == http.StatusForbidden:
			return ErrorBlocked
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}
