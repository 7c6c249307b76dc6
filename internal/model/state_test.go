package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

// ── ParseState ─────────────────────────────────────────────────────────────

func TestParseState_ValidValues(t *testing.T) {
	valid := []string{
		"queued", "processing", "ready", "auto_submitting",
		"submitted", "failed", "permanently_failed", "cancelled",
	}
	for _, s := range valid {
		got, err := model.ParseState(s)
		if err != nil {
			t.Errorf("ParseState(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseState(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseState_InvalidValue(t *testing.T) {
	for _, s := range []string{"", "QUEUED", "done"} {
		if _, err := model.ParseState(s); err == nil {
			t.Errorf("ParseState(%q) expected error, got nil", s)
		}
	}
}

// ── CanTransition ──────────────────────────────────────────────────────────

func TestCanTransition_Allowed(t *testing.T) {
	cases := []struct {
		from model.State
		to   model.State
	}{
		{model.StateQueued, model.StateProcessing},
		{model.StateProcessing, model.StateReady},
		{model.StateProcessing, model.StateFailed},
		{model.StateReady, model.StateAutoSubmitting},
		{model.StateAutoSubmitting, model.StateSubmitted},
		{model.StateAutoSubmitting, model.StateFailed},
		{model.StateFailed, model.StateQueued},
		{model.StateFailed, model.StatePermanentlyFailed},
	}
	for _, c := range cases {
		if !model.CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s → %s) should be true", c.from, c.to)
		}
	}
}

func TestCanTransition_CancelFromNonTerminal(t *testing.T) {
	for _, s := range []model.State{
		model.StateQueued,
		model.StateProcessing,
		model.StateReady,
		model.StateAutoSubmitting,
		model.StateFailed,
	} {
		if !model.CanTransition(s, model.StateCancelled) {
			t.Errorf("CanTransition(%s → cancelled) should be true", s)
		}
	}
}

func TestCanTransition_TerminalStatesAreFrozen(t *testing.T) {
	all := []model.State{
		model.StateQueued, model.StateProcessing, model.StateReady, model.StateAutoSubmitting,
		model.StateSubmitted, model.StateFailed, model.StatePermanentlyFailed, model.StateCancelled,
	}
	for _, from := range model.TerminalStates {
		for _, to := range all {
			if model.CanTransition(from, to) {
				t.Errorf("CanTransition(%s → %s) should be false for terminal state", from, to)
			}
		}
	}
}

func TestCanTransition_Rejected(t *testing.T) {
	cases := []struct {
		from model.State
		to   model.State
	}{
		{model.StateQueued, model.StateReady},
		{model.StateQueued, model.StateSubmitted},
		{model.StateReady, model.StateSubmitted},
		{model.StateProcessing, model.StateAutoSubmitting},
		{model.StateFailed, model.StateReady},
		{model.StateQueued, model.StateQueued},
	}
	for _, c := range cases {
		if model.CanTransition(c.from, c.to) {
			t.Errorf("CanTransition(%s → %s) should be false", c.from, c.to)
		}
	}
}

func TestCheckTransition_WrapsSentinel(t *testing.T) {
	err := model.CheckTransition(model.StateSubmitted, model.StateQueued)
	if !errors.Is(err, model.ErrIllegalTransition) {
		t.Errorf("CheckTransition error = %v, want ErrIllegalTransition", err)
	}
	if err := model.CheckTransition(model.StateQueued, model.StateProcessing); err != nil {
		t.Errorf("CheckTransition(queued → processing) = %v, want nil", err)
	}
}

// ── Dates ──────────────────────────────────────────────────────────────────

func TestDaysUntilClosing_CalendarDays(t *testing.T) {
	closing := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	job := model.JobRecord{ClosingDate: closing}
	cases := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2025, 3, 15, 23, 59, 0, 0, time.UTC), 0},
		{time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC), 1},
		{time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC), 1},
		{time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), 14},
		{time.Date(2025, 3, 17, 8, 0, 0, 0, time.UTC), -2},
	}
	for _, c := range cases {
		if got := job.DaysUntilClosing(c.now); got != c.want {
			t.Errorf("DaysUntilClosing(%s) = %d, want %d", c.now, got, c.want)
		}
	}
}

// ── SearchProfile ──────────────────────────────────────────────────────────

func TestSearchProfile_Runnable(t *testing.T) {
	base := model.SearchProfile{Active: true, AutomationEnabled: true}
	if !base.Runnable() {
		t.Error("active profile with automation should be runnable")
	}
	paused := base
	paused.Paused = true
	if paused.Runnable() {
		t.Error("paused profile should not be runnable")
	}
	disabled := base
	disabled.AutomationEnabled = false
	if disabled.Runnable() {
		t.Error("profile with automation disabled should not be runnable")
	}
	inactive := base
	inactive.Active = false
	if inactive.Runnable() {
		t.Error("inactive profile should not be runnable")
	}
}

func TestSearchProfile_Validate(t *testing.T) {
	valid := model.SearchProfile{
		OwnerID:        1,
		Keywords:       []string{"analyst"},
		Locations:      []string{"London"},
		MinDaysToClose: 1,
		MaxDaysToClose: 30,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	broken := valid
	broken.MaxDaysToClose = 0
	var verr *model.ValidationError
	if err := broken.Validate(); !errors.As(err, &verr) || verr.Field != "max_days_to_close" {
		t.Errorf("Validate() = %v, want max_days_to_close validation error", err)
	}

	noKeywords := valid
	noKeywords.Keywords = nil
	if err := noKeywords.Validate(); err == nil {
		t.Error("Validate() without keywords expected error, got nil")
	}
}
