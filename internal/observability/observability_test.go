package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/baxromumarov/job-autopilot/internal/httpx"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

func TestClassifyFetchError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, observability.ErrorUnknown},
		{&httpx.FetchError{Err: httpx.ErrDisallowed}, observability.ErrorBlocked},
		{&httpx.FetchError{Status: 429}, observability.ErrorRateLimit},
		{&httpx.FetchError{Status: 403}, observability.ErrorBlocked},
		{&httpx.FetchError{Status: 502}, observability.ErrorNetwork},
		{context.DeadlineExceeded, observability.ErrorNetwork},
		{errors.New("other"), observability.ErrorUnknown},
	}
	for _, c := range cases {
		if got := observability.ClassifyFetchError(c.err); got != c.want {
			t.Errorf("ClassifyFetchError(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	before := observability.Snapshot()
	observability.IncRejection("no sponsorship")
	observability.IncTransition("queued")
	observability.IncError(observability.ErrorStore, "crawl")
	observability.ObserveSession(2, true)

	after := observability.Snapshot()
	if after.Rejections["no sponsorship"] != before.Rejections["no sponsorship"]+1 {
		t.Errorf("rejections = %v", after.Rejections)
	}
	if after.Transitions["queued"] != before.Transitions["queued"]+1 {
		t.Errorf("transitions = %v", after.Transitions)
	}
	if after.ErrorsTotal != before.ErrorsTotal+1 || after.ErrorsByComponent["crawl"] != before.ErrorsByComponent["crawl"]+1 {
		t.Errorf("errors total=%d by component=%v", after.ErrorsTotal, after.ErrorsByComponent)
	}
	if after.SessionsRun != before.SessionsRun+1 || after.SessionsFailed != before.SessionsFailed+1 {
		t.Errorf("sessions run=%d failed=%d", after.SessionsRun, after.SessionsFailed)
	}
}
