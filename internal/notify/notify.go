// Package notify forwards application events to owners. Delivery itself
// (email, SMS) happens downstream of the published events.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind names an owner-facing event.
type Kind string

const (
	KindSubmitted          Kind = "submitted"
	KindPermanentlyFailed  Kind = "permanently_failed"
	KindInterviewInvite    Kind = "interview_invite"
	KindInterviewScheduled Kind = "interview_scheduled"
	KindInterviewCompleted Kind = "interview_completed"
)

// IsInterview reports whether k is one of the interview events.
func (k Kind) IsInterview() bool {
	switch k {
	case KindInterviewInvite, KindInterviewScheduled, KindInterviewCompleted:
		return true
	}
	return false
}

type Event struct {
	Kind          Kind      `json:"kind"`
	OwnerID       int64     `json:"owner_id"`
	ApplicationID uuid.UUID `json:"application_id"`
	JobRef        string    `json:"job_ref"`
	Detail        string    `json:"detail,omitempty"`
	At            time.Time `json:"at"`
}

// Notifier is fire-and-forget from the caller's point of view: callers log
// a returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, owner int64, ev Event) error
}

// LogNotifier writes events to the structured log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, owner int64, ev Event) error {
	slog.Info("owner notification",
		"owner", owner,
		"kind", ev.Kind,
		"application", ev.ApplicationID,
		"job_ref", ev.JobRef,
		"detail", ev.Detail,
	)
	return nil
}
