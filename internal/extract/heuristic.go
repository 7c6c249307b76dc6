package extract

import (
	"strings"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/textutil"
)

// rawFields are the unparsed strings of one listing, whichever stage read them.
type rawFields struct {
	Reference      string
	Title          string
	Employer       string
	Location       string
	Salary         string
	ClosingDate    string
	Band           string
	ContractType   string
	WorkingPattern string
	Essential      []string
	Desirable      []string
}

var fieldLabels = map[string][]string{
	FieldReference:    {"Job reference", "Reference number", "Reference", "Ref"},
	FieldEmployer:     {"Department", "Organisation", "Employer", "Company"},
	"location":        {"Location", "Locations"},
	FieldSalary:       {"Salary", "Pay"},
	"closing_date":    {"Closing date", "Closes", "Apply by", "Deadline"},
	"band":            {"Grade", "Band", "Pay band"},
	"contract_type":   {"Type of role", "Contract type", "Contract"},
	"working_pattern": {"Working pattern", "Hours"},
}

// HeuristicExtractor reads fields from selector text, falling back to
// "Label: value" lines in the page text.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(d *browser.Detail, now time.Time) Result {
	if d == nil {
		return Failed(FieldReference, "missing", StageHeuristic)
	}
	lines := pageLines(d.Text)
	pick := func(selected, field string) string {
		if v := textutil.CollapseSpace(selected); v != "" {
			return v
		}
		return labelledValue(lines, fieldLabels[field]...)
	}
	raw := rawFields{
		Reference:      pick(d.Reference, FieldReference),
		Title:          textutil.CollapseSpace(d.Title),
		Employer:       pick(d.Employer, FieldEmployer),
		Location:       pick(d.Location, "location"),
		Salary:         pick(d.Salary, FieldSalary),
		ClosingDate:    pick(d.ClosingDate, "closing_date"),
		Band:           pick(d.Band, "band"),
		ContractType:   pick(d.ContractType, "contract_type"),
		WorkingPattern: pick(d.WorkingPattern, "working_pattern"),
		Essential:      d.Essential,
		Desirable:      d.Desirable,
	}
	return build(raw, d, now, StageHeuristic)
}

// build validates raw fields and runs the deterministic parsers shared by
// both stages.
func build(raw rawFields, d *browser.Detail, now time.Time, stage Stage) Result {
	ref := strings.TrimSpace(raw.Reference)
	if ref == "" {
		return Failed(FieldReference, "missing", stage)
	}
	title := textutil.CollapseSpace(raw.Title)
	if title == "" {
		return Failed(FieldTitle, "missing", stage)
	}
	employer := textutil.CollapseSpace(raw.Employer)
	if employer == "" {
		return Failed(FieldEmployer, "missing", stage)
	}

	salary, err := ParseSalary(raw.Salary)
	if err != nil {
		return Failed(FieldSalary, err.Error()+": "+raw.Salary, stage)
	}
	closing := ParseClosingDate(raw.ClosingDate, now)

	description := strings.TrimSpace(d.Description)
	if description == "" {
		description = strings.TrimSpace(d.Text)
	}
	body := d.Text
	if strings.TrimSpace(body) == "" {
		body = description
	}
	sponsored, clause := DetectSponsorship(body)

	return Ok(model.JobRecord{
		Reference:        ref,
		URL:              d.URL,
		Title:            title,
		Employer:         employer,
		Location:         textutil.CollapseSpace(raw.Location),
		Band:             MatchBand(raw.Band, title),
		SalaryMin:        salary.Min,
		SalaryMax:        salary.Max,
		SalaryStatus:     salary.Status,
		WorkingPattern:   MatchWorkingPattern(raw.WorkingPattern),
		ContractType:     MatchContractType(raw.ContractType),
		Hybrid:           detectHybrid(raw.WorkingPattern, raw.Location, body),
		Remote:           detectRemote(raw.WorkingPattern, raw.Location, body),
		Sponsorship:      sponsored,
		SponsorshipText:  clause,
		ClosingDate:      closing.Date,
		ClosingEstimated: closing.Estimated,
		Description:      description,
		Essential:        cleanItems(raw.Essential),
		Desirable:        cleanItems(raw.Desirable),
		DiscoveredAt:     now,
		Active:           true,
	}, stage)
}

func pageLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if l := textutil.CollapseSpace(line); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// labelledValue finds "Label: value" on one line, or a bare label line
// followed by its value on the next.
func labelledValue(lines []string, labels ...string) string {
	for i, line := range lines {
		for _, label := range labels {
			if len(line) < len(label) || !strings.EqualFold(line[:len(label)], label) {
				continue
			}
			rest := strings.TrimSpace(line[len(label):])
			switch {
			case rest == "":
				if i+1 < len(lines) {
					return lines[i+1]
				}
			case strings.HasPrefix(rest, ":"), strings.HasPrefix(rest, "-"), strings.HasPrefix(rest, "–"):
				if v := strings.TrimSpace(strings.TrimLeft(rest, ":-– ")); v != "" {
					return v
				}
				if i+1 < len(lines) {
					return lines[i+1]
				}
			}
		}
	}
	return ""
}

func cleanItems(items []string) []string {
	var out []string
	for _, it := range items {
		if v := textutil.CollapseSpace(it); v != "" {
			out = append(out, v)
		}
	}
	return out
}
