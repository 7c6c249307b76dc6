package extract

import (
	"regexp"
	"strings"
)

type term struct {
	label string
	re    *regexp.Regexp
}

func phrase(label string, patterns ...string) term {
	return term{label: label, re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(patterns, "|") + `)\b`)}
}

// abbrev matches case-sensitively so that "eo" inside prose does not count.
func abbrev(label string, patterns ...string) term {
	return term{label: label, re: regexp.MustCompile(`\b(?:` + strings.Join(patterns, "|") + `)\b`)}
}

// Vocabularies are ordered most specific first; the first match wins.
var (
	bandTerms = []term{
		phrase("SCS", `senior civil service`, `SCS\s?(?:pay\s?band\s?)?\d?`),
		phrase("Grade 6", `grade\s?6`, `G6`),
		phrase("Grade 7", `grade\s?7`, `G7`),
		abbrev("SEO", `SEO`),
		phrase("SEO", `senior executive officer`),
		abbrev("HEO", `HEO`),
		phrase("HEO", `higher executive officer`),
		abbrev("EO", `EO`),
		phrase("EO", `executive officer`),
		abbrev("AO", `AO`),
		phrase("AO", `administrative officer`),
		abbrev("AA", `AA`),
		phrase("AA", `administrative assistant`),
	}

	contractTerms = []term{
		phrase("Permanent", `permanent`),
		phrase("Fixed term", `fixed[\s-]term`, `FTC`),
		phrase("Secondment", `secondment`),
		phrase("Loan", `loan`),
		phrase("Apprenticeship", `apprenticeship`),
		phrase("Temporary", `temporary`, `temp`),
		phrase("Contract", `contract`, `contractor`),
	}

	patternTerms = []term{
		phrase("Full-time", `full[\s-]?time`),
		phrase("Part-time", `part[\s-]?time`),
		phrase("Job share", `job[\s-]share`),
		phrase("Flexible working", `flexible working`, `flexi[\s-]?time`),
		phrase("Compressed hours", `compressed hours`),
	}

	hybridTerm = phrase("Hybrid", `hybrid`, `blended working`, `office and home`, `home and office`)
	remoteTerm = phrase("Remote", `fully remote`, `remote[\s-]first`, `remote working`, `work from home`, `home[\s-]based`, `remote`)
)

// firstTerm returns the label of the first term matching any of texts,
// trying texts in order.
func firstTerm(terms []term, texts ...string) *string {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		for _, t := range terms {
			if t.re.MatchString(text) {
				label := t.label
				return &label
			}
		}
	}
	return nil
}

// MatchBand maps free text to a pay-band label, or nil.
func MatchBand(texts ...string) *string { return firstTerm(bandTerms, texts...) }

// MatchContractType maps free text to a contract type, or nil.
func MatchContractType(texts ...string) *string { return firstTerm(contractTerms, texts...) }

// MatchWorkingPattern maps free text to a working pattern, or nil.
func MatchWorkingPattern(texts ...string) *string { return firstTerm(patternTerms, texts...) }

func detectHybrid(texts ...string) bool {
	return firstTerm([]term{hybridTerm}, texts...) != nil
}

func detectRemote(texts ...string) bool {
	return firstTerm([]term{remoteTerm}, texts...) != nil
}
