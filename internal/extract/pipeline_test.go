package extract_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/baxromumarov/job-autopilot/internal/ai"
	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/extract"
	"github.com/baxromumarov/job-autopilot/internal/model"
)

type fakeAI struct {
	fields ai.ListingFields
	err    error
	calls  int
}

func (f *fakeAI) ExtractListing(ctx context.Context, page ai.ListingText) (ai.ListingFields, error) {
	f.calls++
	return f.fields, f.err
}

func selectorDetail() *browser.Detail {
	return &browser.Detail{
		URL:            "https://jobs.example.gov.uk/vacancy/123",
		Reference:      "123",
		Title:          "Policy Adviser",
		Employer:       "Department for Widgets",
		Location:       "London",
		Salary:         "£35,000 - £42,000",
		ClosingDate:    "15 March 2025",
		Band:           "Higher Executive Officer",
		ContractType:   "Permanent",
		WorkingPattern: "Full-time, flexible working",
		Description:    "We offer hybrid working. Visa sponsorship is available for this role.",
		Essential:      []string{" Drafting ", ""},
		Text:           "Policy Adviser\nWe offer hybrid working. Visa sponsorship is available for this role.",
	}
}

func TestHeuristicExtractor_SelectorFields(t *testing.T) {
	res := extract.HeuristicExtractor{}.Extract(selectorDetail(), extractNow)
	if !res.OK() {
		t.Fatalf("Extract failed: %v", res.Failure)
	}
	if res.Stage != extract.StageHeuristic {
		t.Errorf("Stage = %s, want heuristic", res.Stage)
	}
	job := res.Job
	if job.Reference != "123" || job.Title != "Policy Adviser" || job.Employer != "Department for Widgets" {
		t.Errorf("identity fields = %q/%q/%q", job.Reference, job.Title, job.Employer)
	}
	if job.SalaryMin == nil || *job.SalaryMin != 35000 || job.SalaryMax == nil || *job.SalaryMax != 42000 {
		t.Errorf("salary = %v-%v, want 35000-42000", job.SalaryMin, job.SalaryMax)
	}
	if !job.ClosingDate.Equal(day(2025, 3, 15)) || job.ClosingEstimated {
		t.Errorf("closing = %s estimated=%v, want 2025-03-15 not estimated", job.ClosingDate, job.ClosingEstimated)
	}
	if label(job.Band) != "HEO" || label(job.ContractType) != "Permanent" || label(job.WorkingPattern) != "Full-time" {
		t.Errorf("vocab = %s/%s/%s", label(job.Band), label(job.ContractType), label(job.WorkingPattern))
	}
	if !job.Hybrid || job.Remote {
		t.Errorf("hybrid=%v remote=%v, want true/false", job.Hybrid, job.Remote)
	}
	if !job.Sponsorship || job.SponsorshipText != "Visa sponsorship is available for this role." {
		t.Errorf("sponsorship = %v %q", job.Sponsorship, job.SponsorshipText)
	}
	if !reflect.DeepEqual(job.Essential, []string{"Drafting"}) {
		t.Errorf("essential = %q, want [Drafting]", job.Essential)
	}
	if !job.DiscoveredAt.Equal(extractNow) || !job.Active {
		t.Errorf("discovered=%s active=%v", job.DiscoveredAt, job.Active)
	}
}

func TestHeuristicExtractor_LabelledLines(t *testing.T) {
	d := &browser.Detail{
		URL:   "https://jobs.example.gov.uk/vacancy/98765",
		Title: "Data Analyst",
		Text: "Data Analyst\nReference: 98765\nDepartment\nDepartment for Widgets\n" +
			"Salary: Competitive\nClosing date: 20/03/2025\nAbout the role",
	}
	res := extract.HeuristicExtractor{}.Extract(d, extractNow)
	if !res.OK() {
		t.Fatalf("Extract failed: %v", res.Failure)
	}
	job := res.Job
	if job.Reference != "98765" {
		t.Errorf("Reference = %q, want 98765", job.Reference)
	}
	if job.Employer != "Department for Widgets" {
		t.Errorf("Employer = %q, want Department for Widgets", job.Employer)
	}
	if job.SalaryStatus != model.SalaryUnspecified || job.SalaryMin != nil {
		t.Errorf("salary = %s %v, want unspecified", job.SalaryStatus, job.SalaryMin)
	}
	if !job.ClosingDate.Equal(day(2025, 3, 20)) {
		t.Errorf("ClosingDate = %s, want 2025-03-20", job.ClosingDate)
	}
	if job.Sponsorship {
		t.Error("Sponsorship should be false without a matching phrase")
	}
}

func TestHeuristicExtractor_Failures(t *testing.T) {
	cases := []struct {
		name  string
		d     *browser.Detail
		field string
	}{
		{"nil detail", nil, extract.FieldReference},
		{"no reference", &browser.Detail{Title: "T", Employer: "E"}, extract.FieldReference},
		{"no title", &browser.Detail{Reference: "1", Employer: "E"}, extract.FieldTitle},
		{"no employer", &browser.Detail{Reference: "1", Title: "T"}, extract.FieldEmployer},
		{"bad salary", &browser.Detail{Reference: "1", Title: "T", Employer: "E", Salary: "see advert"}, extract.FieldSalary},
	}
	for _, c := range cases {
		res := extract.HeuristicExtractor{}.Extract(c.d, extractNow)
		if res.OK() {
			t.Errorf("%s: expected failure, got OK", c.name)
			continue
		}
		if res.Failure.Field != c.field {
			t.Errorf("%s: failed field = %s, want %s", c.name, res.Failure.Field, c.field)
		}
	}
}

func TestPipeline_EnhancedStage(t *testing.T) {
	client := &fakeAI{fields: ai.ListingFields{
		Reference:   "ignored",
		Title:       "Policy Adviser",
		Employer:    "Department for Widgets",
		Salary:      "£50,000",
		ClosingDate: "in 5 days",
		Band:        "Grade 7",
	}}
	p := extract.NewPipeline(&extract.AIExtractor{Client: client})

	res := p.Extract(context.Background(), selectorDetail(), extractNow)
	if !res.OK() {
		t.Fatalf("Extract failed: %v", res.Failure)
	}
	if res.Stage != extract.StageEnhanced {
		t.Errorf("Stage = %s, want enhanced", res.Stage)
	}
	if res.Job.Reference != "123" {
		t.Errorf("Reference = %q, want the page reference 123", res.Job.Reference)
	}
	if res.Job.SalaryMin == nil || *res.Job.SalaryMin != 50000 {
		t.Errorf("SalaryMin = %v, want 50000", res.Job.SalaryMin)
	}
	if !res.Job.ClosingDate.Equal(day(2025, 3, 6)) {
		t.Errorf("ClosingDate = %s, want 2025-03-06", res.Job.ClosingDate)
	}
	if label(res.Job.Band) != "Grade 7" {
		t.Errorf("Band = %s, want Grade 7", label(res.Job.Band))
	}
}

func TestPipeline_FallsBackOnError(t *testing.T) {
	client := &fakeAI{err: ai.ErrUnavailable}
	p := extract.NewPipeline(&extract.AIExtractor{Client: client})

	res := p.Extract(context.Background(), selectorDetail(), extractNow)
	if !res.OK() || res.Stage != extract.StageHeuristic {
		t.Fatalf("Extract = stage %s ok=%v, want heuristic OK", res.Stage, res.OK())
	}
	if client.calls != 1 {
		t.Errorf("enhanced stage called %d times, want 1", client.calls)
	}
}

func TestPipeline_FallsBackOnFailedResult(t *testing.T) {
	client := &fakeAI{fields: ai.ListingFields{Title: "Policy Adviser"}}
	p := extract.NewPipeline(&extract.AIExtractor{Client: client})

	res := p.Extract(context.Background(), selectorDetail(), extractNow)
	if !res.OK() || res.Stage != extract.StageHeuristic {
		t.Fatalf("Extract = stage %s ok=%v, want heuristic OK", res.Stage, res.OK())
	}
	if res.Job.Employer != "Department for Widgets" {
		t.Errorf("Employer = %q, want the selector value", res.Job.Employer)
	}
}

func TestPipeline_NoEnhancedStage(t *testing.T) {
	p := extract.NewPipeline(nil)
	res := p.Extract(context.Background(), selectorDetail(), extractNow)
	if res.Stage != extract.StageHeuristic || !res.OK() {
		t.Errorf("Extract = stage %s ok=%v, want heuristic OK", res.Stage, res.OK())
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	p := extract.NewPipeline(&extract.AIExtractor{Client: ai.DisabledClient{}})
	first := p.Extract(context.Background(), selectorDetail(), extractNow)
	second := p.Extract(context.Background(), selectorDetail(), extractNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated extraction differs:\n%+v\n%+v", first, second)
	}
}

func TestFailure_Error(t *testing.T) {
	var err error = extract.Failed(extract.FieldTitle, "missing", extract.StageHeuristic).Failure
	var f *extract.Failure
	if !errors.As(err, &f) || f.Field != extract.FieldTitle {
		t.Fatalf("errors.As = %v", err)
	}
	if err.Error() != "extract title: missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}
