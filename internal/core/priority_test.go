package core_test

import (
	"testing"

	"github.com/baxromumarov/job-autopilot/internal/core"
	"github.com/baxromumarov/job-autopilot/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		days     int
		required bool
		match    bool
		want     model.Priority
	}{
		{-1, false, false, model.PriorityUrgent},
		{0, false, false, model.PriorityUrgent},
		{2, true, true, model.PriorityUrgent},
		{3, true, true, model.PriorityHigh},
		{7, true, true, model.PriorityHigh},
		{8, true, true, model.PriorityNormal},
		{5, true, false, model.PriorityNormal},
		{5, false, true, model.PriorityNormal},
		{10, false, false, model.PriorityNormal},
		{11, true, true, model.PriorityLow},
		{60, false, false, model.PriorityLow},
	}
	for _, c := range cases {
		got := core.Classify(c.days, c.required, c.match)
		if got != c.want {
			t.Errorf("Classify(%d, %v, %v) = %s, want %s", c.days, c.required, c.match, got, c.want)
		}
	}
}

func TestClassifyJob(t *testing.T) {
	job := model.JobRecord{Sponsorship: true, ClosingDate: closingIn(5)}
	if got := core.ClassifyJob(job, sponsorProfile(), coreNow); got != model.PriorityHigh {
		t.Errorf("ClassifyJob = %s, want high", got)
	}
	p := sponsorProfile()
	p.RequiresSponsorship = false
	if got := core.ClassifyJob(job, p, coreNow); got != model.PriorityNormal {
		t.Errorf("ClassifyJob without sponsorship need = %s, want normal", got)
	}
}
