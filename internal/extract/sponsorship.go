package extract

import "github.com/baxromumarov/job-autopilot/internal/textutil"

// sponsorshipPhrases signal that the employer can sponsor a work visa.
// Phrases that also occur inside common negations ("unable to sponsor")
// are left out.
var sponsorshipPhrases = []string{
	"visa sponsorship",
	"sponsorship is available",
	"sponsorship available",
	"certificate of sponsorship",
	"skilled worker visa",
	"skilled worker sponsorship",
	"tier 2 sponsorship",
	"will sponsor",
	"we sponsor",
	"sponsorship can be provided",
	"sponsorship may be available",
}

// DetectSponsorship reports whether text mentions visa sponsorship and
// returns the sentence holding the first matching phrase. No match is a
// confident false.
func DetectSponsorship(text string) (bool, string) {
	flat := textutil.CollapseSpace(text)
	if _, ok := textutil.FirstFold(flat, sponsorshipPhrases); !ok {
		return false, ""
	}
	if clause, ok := sponsorshipClause(textutil.Sentences(text)); ok {
		return true, clause
	}
	// The phrase wraps across a line break.
	if clause, ok := sponsorshipClause(textutil.Sentences(flat)); ok {
		return true, clause
	}
	return true, flat
}

func sponsorshipClause(sentences []string) (string, bool) {
	for _, sentence := range sentences {
		if _, ok := textutil.FirstFold(sentence, sponsorshipPhrases); ok {
			return sentence, true
		}
	}
	return "", false
}
