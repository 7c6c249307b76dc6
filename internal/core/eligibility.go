package core

import (
	"time"

	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/textutil"
)

// RejectReason explains why a job was not eligible for a profile.
type RejectReason string

const (
	RejectClosesTooSoon   RejectReason = "closes too soon"
	RejectClosesTooFarOut RejectReason = "closes too far out"
	RejectExcludedKeyword RejectReason = "excluded keyword"
	RejectNoSponsorship   RejectReason = "no sponsorship"
)

type Verdict struct {
	Accepted bool
	Reason   RejectReason
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(r RejectReason) Verdict { return Verdict{Reason: r} }

// CheckEligibility applies the profile's rules to job in a fixed order:
// closing window, excluded keywords, then sponsorship. The first failing
// rule is reported.
func CheckEligibility(job model.JobRecord, profile model.SearchProfile, now time.Time) Verdict {
	days := job.DaysUntilClosing(now)
	if days < profile.MinDaysToClose {
		return reject(RejectClosesTooSoon)
	}
	if days > profile.MaxDaysToClose {
		return reject(RejectClosesTooFarOut)
	}
	if MatchesKeywords(job.Title, profile.ExcludeKeywords) ||
		MatchesKeywords(job.Description, profile.ExcludeKeywords) {
		return reject(RejectExcludedKeyword)
	}
	if profile.RequiresSponsorship && !job.Sponsorship {
		return reject(RejectNoSponsorship)
	}
	return accept()
}

// MatchesKeywords reports whether any keyword occurs in text, ignoring case.
func MatchesKeywords(text string, keywords []string) bool {
	_, ok := textutil.FirstFold(text, keywords)
	return ok
}
