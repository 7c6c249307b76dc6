package extract_test

import (
	"testing"

	"github.com/baxromumarov/job-autopilot/internal/extract"
)

func label(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestMatchBand(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Higher Executive Officer", "HEO"},
		{"Senior Executive Officer (SEO)", "SEO"},
		{"HEO", "HEO"},
		{"Executive Officer", "EO"},
		{"Grade 7", "Grade 7"},
		{"G6 policy lead", "Grade 6"},
		{"Senior Civil Service Pay Band 1", "SCS"},
		{"Administrative Officer", "AO"},
		{"a geo survey role", "<nil>"},
		{"", "<nil>"},
	}
	for _, c := range cases {
		if got := label(extract.MatchBand(c.text)); got != c.want {
			t.Errorf("MatchBand(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestMatchBand_FirstTextWins(t *testing.T) {
	if got := label(extract.MatchBand("", "HEO Policy Adviser")); got != "HEO" {
		t.Errorf("MatchBand falls back to later text: got %s, want HEO", got)
	}
	if got := label(extract.MatchBand("Grade 7", "HEO Policy Adviser")); got != "Grade 7" {
		t.Errorf("MatchBand should prefer the first text: got %s, want Grade 7", got)
	}
}

func TestMatchContractType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Permanent", "Permanent"},
		{"Fixed Term Appointment", "Fixed term"},
		{"Fixed-term (12 months)", "Fixed term"},
		{"Secondment", "Secondment"},
		{"Temporary cover", "Temporary"},
		{"Contractor", "Contract"},
		{"contemporary art", "<nil>"},
	}
	for _, c := range cases {
		if got := label(extract.MatchContractType(c.text)); got != c.want {
			t.Errorf("MatchContractType(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestMatchWorkingPattern(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Full-time, Part-time", "Full-time"},
		{"Part time", "Part-time"},
		{"Job share", "Job share"},
		{"Compressed hours available", "Compressed hours"},
		{"Mondays only", "<nil>"},
	}
	for _, c := range cases {
		if got := label(extract.MatchWorkingPattern(c.text)); got != c.want {
			t.Errorf("MatchWorkingPattern(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}
