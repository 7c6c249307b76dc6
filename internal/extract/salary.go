package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/textutil"
)

// ErrUnrecognisedSalary is returned for salary text that has neither an
// amount nor a known "unspecified" marker.
var ErrUnrecognisedSalary = errors.New("unrecognised salary text")

const amount = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)(\s?[kK]\b)?`

var (
	currencyAmount = `(?:[£$€]|GBP\s?|USD\s?|EUR\s?)` + amount
	salaryRange    = regexp.MustCompile(currencyAmount + `\s*(?:-|–|—|to)\s*(?:[£$€]|GBP\s?|USD\s?|EUR\s?)?` + amount)
	salarySingle   = regexp.MustCompile(currencyAmount)
	salaryBare     = regexp.MustCompile(`\b` + amount)
)

var unspecifiedSalaryMarkers = []string{
	"competitive",
	"negotiable",
	"not specified",
	"unspecified",
	"depending on experience",
	"dependent on experience",
	"tbc",
}

// Salary is a parsed salary range. Min and Max are nil when unspecified.
type Salary struct {
	Min    *float64
	Max    *float64
	Status model.SalaryStatus
}

// ParseSalary reads a salary range from text. A range needs two amounts
// joined by a range marker with the first carrying a currency; a single
// amount gives min = max. Empty text and the "competitive"-style markers
// give an unspecified salary unless a currency amount is present.
func ParseSalary(text string) (Salary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Salary{Status: model.SalaryUnspecified}, nil
	}

	if m := salaryRange.FindStringSubmatch(text); m != nil {
		lo, err1 := parseAmount(m[1], m[2])
		hi, err2 := parseAmount(m[3], m[4])
		if err1 == nil && err2 == nil {
			if lo > hi {
				lo, hi = hi, lo
			}
			return stated(lo, hi), nil
		}
	}

	if v, ok := firstAmount(salarySingle, text); ok {
		return stated(v, v), nil
	}

	// A marker outranks a bare number such as "37 hours" or "Grade 7".
	if _, ok := textutil.FirstFold(text, unspecifiedSalaryMarkers); ok {
		return Salary{Status: model.SalaryUnspecified}, nil
	}
	if v, ok := firstAmount(salaryBare, text); ok {
		return stated(v, v), nil
	}
	return Salary{}, ErrUnrecognisedSalary
}

func firstAmount(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := parseAmount(m[1], m[2])
	return v, err == nil
}

func parseAmount(num, suffix string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(suffix) != "" {
		v *= 1000
	}
	return v, nil
}

func stated(lo, hi float64) Salary {
	return Salary{Min: &lo, Max: &hi, Status: model.SalaryStated}
}
