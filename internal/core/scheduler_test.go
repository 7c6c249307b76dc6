package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/core"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

func TestScheduleSubmission(t *testing.T) {
	cases := []struct {
		name     string
		priority model.Priority
		closing  time.Time
		want     time.Time
	}{
		{"urgent", model.PriorityUrgent, closingIn(1), coreNow.Add(6 * time.Hour)},
		{"high", model.PriorityHigh, closingIn(6), coreNow.Add(24 * time.Hour)},
		{"normal", model.PriorityNormal, closingIn(10), closingIn(6)},
		{"low", model.PriorityLow, closingIn(30), closingIn(26)},
		{"normal clamped to now", model.PriorityNormal, closingIn(3), coreNow},
	}
	for _, c := range cases {
		got := core.ScheduleSubmission(c.priority, c.closing, coreNow)
		if !got.Equal(c.want) {
			t.Errorf("%s: ScheduleSubmission = %s, want %s", c.name, got, c.want)
		}
		if got.Before(coreNow) {
			t.Errorf("%s: scheduled %s before now", c.name, got)
		}
	}
}

func TestScheduleSubmission_Monotonic(t *testing.T) {
	for _, p := range []model.Priority{model.PriorityNormal, model.PriorityLow} {
		prev := core.ScheduleSubmission(p, closingIn(0), coreNow)
		for days := 1; days <= 40; days++ {
			at := core.ScheduleSubmission(p, closingIn(days), coreNow)
			if at.Before(prev) {
				t.Fatalf("%s: closing in %d days scheduled %s, earlier than %s", p, days, at, prev)
			}
			prev = at
		}
	}
}

func TestPlan(t *testing.T) {
	job := model.JobRecord{Reference: "123", ClosingDate: closingIn(1)}
	app := core.Plan(job, sponsorProfile(), coreNow)

	if app.State != model.StateQueued {
		t.Errorf("State = %s, want queued", app.State)
	}
	if app.OwnerID != 7 || app.JobRef != "123" {
		t.Errorf("owner/job = %d/%s, want 7/123", app.OwnerID, app.JobRef)
	}
	if app.Priority != model.PriorityUrgent {
		t.Errorf("Priority = %s, want urgent", app.Priority)
	}
	if !app.ScheduledSubmitAt.Equal(coreNow.Add(6 * time.Hour)) {
		t.Errorf("ScheduledSubmitAt = %s", app.ScheduledSubmitAt)
	}
	if app.Attempts != 0 || app.ID.String() == "" {
		t.Errorf("attempts=%d id=%s", app.Attempts, app.ID)
	}
}

func TestSweepService_Sweep(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	today := model.Date(time.Now())
	for _, job := range []model.JobRecord{
		{Reference: "closed", ClosingDate: today.AddDate(0, 0, -1)},
		{Reference: "today", ClosingDate: today},
		{Reference: "open", ClosingDate: today.AddDate(0, 0, 5)},
	} {
		if _, _, err := db.UpsertJob(ctx, &job); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	svc := core.NewSweepService(db)
	if n := svc.Sweep(ctx); n != 1 {
		t.Errorf("Sweep deactivated %d, want 1", n)
	}
	closed, err := db.GetJob(ctx, "closed")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if closed.Active {
		t.Error("expired job still active")
	}
	if n := svc.Sweep(ctx); n != 0 {
		t.Errorf("second Sweep deactivated %d, want 0", n)
	}
	jobs, err := db.ListJobs(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("active jobs = %d, want 2", len(jobs))
	}
}
