package model

import (
	"time"

	"github.com/google/uuid"
)

// Application is one owner's intended or completed application to one job.
type Application struct {
	ID                uuid.UUID `json:"id"`
	OwnerID           int64     `json:"owner_id"`
	JobRef            string    `json:"job_ref"`
	State             State     `json:"state"`
	Priority          Priority  `json:"priority"`
	ScheduledSubmitAt time.Time `json:"scheduled_submit_at"`
	Attempts          int       `json:"attempts"`
	LastError         *string   `json:"last_error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewApplication builds a queued application with a fresh id.
func NewApplication(owner int64, jobRef string, p Priority, submitAt, now time.Time) Application {
	return Application{
		ID:                uuid.New(),
		OwnerID:           owner,
		JobRef:            jobRef,
		State:             StateQueued,
		Priority:          p,
		ScheduledSubmitAt: submitAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Change carries the column updates that accompany a state transition.
// Nil fields are left untouched.
type Change struct {
	Attempts          *int
	LastError         *string
	ScheduledSubmitAt *time.Time
	At                time.Time
}

// ApplicationEvent is an owner-reported milestone after submission, such as
// an interview invitation.
type ApplicationEvent struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Kind          string    `json:"kind"`
	Note          string    `json:"note,omitempty"`
	At            time.Time `json:"at"`
}
