package core

import (
	"time"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

const (
	urgentWithinDays = 2
	highWithinDays   = 7
	normalWithinDays = 10
)

// Classify maps days until closing and sponsorship fit to a priority. Rules
// are evaluated in order, so a job closing within two days is urgent even
// when it would also qualify as high.
func Classify(days int, sponsorshipRequired, sponsorshipMatch bool) model.Priority {
	switch {
	case days <= urgentWithinDays:
		return model.PriorityUrgent
	case sponsorshipRequired && sponsorshipMatch && days <= highWithinDays:
		return model.PriorityHigh
	case days <= normalWithinDays:
		return model.PriorityNormal
	default:
		return model.PriorityLow
	}
}

func ClassifyJob(job model.JobRecord, profile model.SearchProfile, now time.Time) model.Priority {
	return Classify(job.DaysUntilClosing(now), profile.RequiresSponsorship, job.Sponsorship)
}
