package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

const (
	urgentDelay       = 6 * time.Hour
	highDelay         = 24 * time.Hour
	beforeClosingLead = 4 * 24 * time.Hour
)

// ScheduleSubmission returns when an application of priority p should be
// submitted. Urgent and high go out after a fixed delay; the rest are held
// until four days before closing, never earlier than now.
func ScheduleSubmission(p model.Priority, closing, now time.Time) time.Time {
	switch p {
	case model.PriorityUrgent:
		return now.Add(urgentDelay)
	case model.PriorityHigh:
		return now.Add(highDelay)
	}
	at := closing.Add(-beforeClosingLead)
	if at.Before(now) {
		return now
	}
	return at
}

// Plan classifies job for profile and builds its queued application.
func Plan(job model.JobRecord, profile model.SearchProfile, now time.Time) model.Application {
	p := ClassifyJob(job, profile, now)
	return model.NewApplication(profile.OwnerID, job.Reference, p, ScheduleSubmission(p, job.ClosingDate, now), now)
}

// JobExpirer marks jobs whose closing date is before the given day inactive.
type JobExpirer interface {
	DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error)
}

// SweepService runs the daily expiry pass. Jobs are never deleted.
type SweepService struct {
	store    JobExpirer
	interval time.Duration
	now      func() time.Time
}

func NewSweepService(store JobExpirer) *SweepService {
	return &SweepService{store: store, interval: 24 * time.Hour, now: time.Now}
}

func (s *SweepService) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *SweepService) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deactivates expired jobs once and returns how many changed.
func (s *SweepService) Sweep(ctx context.Context) int64 {
	count, err := s.store.DeactivateExpiredJobs(ctx, model.Date(s.now()))
	if err != nil {
		slog.Error("expiry sweep failed", "error", err)
		return 0
	}
	slog.Info("expiry sweep complete", "deactivated", count)
	return count
}
