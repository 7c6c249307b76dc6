package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

// DefaultClosingWindow is added to the discovery date when no closing date
// can be read from the listing.
const DefaultClosingWindow = 14 * 24 * time.Hour

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var (
	wordDate = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` +
		`(january|february|march|april|may|june|july|august|september|october|november|december|` +
		`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?,?\s+(\d{4})\b`)
	slashDate    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)
	dashDate     = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4}|\d{2})\b`)
	relativeDate = regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+days?\b`)
)

// DateFormat records which rule produced a closing date.
type DateFormat string

const (
	DateWords     DateFormat = "words"
	DateSlash     DateFormat = "slash"
	DateDash      DateFormat = "dash"
	DateRelative  DateFormat = "relative"
	DateEstimated DateFormat = "estimated"
)

// ClosingDate is a calendar date at midnight UTC.
type ClosingDate struct {
	Date      time.Time
	Estimated bool
	Format    DateFormat
}

// ParseClosingDate reads a closing date from text, trying day-month-year in
// words, then d/m/y, then d-m-y, then "in N days" relative to now. When none
// match, the date defaults to the day of now plus DefaultClosingWindow and is
// flagged as estimated.
func ParseClosingDate(text string, now time.Time) ClosingDate {
	if d, ok := matchNumeric(wordDate, text, func(m []string) (int, time.Month, int, bool) {
		month, ok := months[strings.ToLower(m[2])]
		return atoi(m[1]), month, atoi(m[3]), ok
	}); ok {
		return ClosingDate{Date: d, Format: DateWords}
	}
	if d, ok := matchNumeric(slashDate, text, dayMonthYear); ok {
		return ClosingDate{Date: d, Format: DateSlash}
	}
	if d, ok := matchNumeric(dashDate, text, dayMonthYear); ok {
		return ClosingDate{Date: d, Format: DateDash}
	}
	if m := relativeDate.FindStringSubmatch(text); m != nil {
		days := atoi(m[1])
		return ClosingDate{Date: model.Date(now).AddDate(0, 0, days), Format: DateRelative}
	}
	return ClosingDate{
		Date:      model.Date(now.Add(DefaultClosingWindow)),
		Estimated: true,
		Format:    DateEstimated,
	}
}

func dayMonthYear(m []string) (int, time.Month, int, bool) {
	month := atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, 0, false
	}
	return atoi(m[1]), time.Month(month), atoi(m[3]), true
}

// matchNumeric returns the first match of re whose parts form a real
// calendar date.
func matchNumeric(re *regexp.Regexp, text string, parts func([]string) (int, time.Month, int, bool)) (time.Time, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		day, month, year, ok := parts(m)
		if !ok {
			continue
		}
		if year < 100 {
			year += 2000
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day || t.Month() != month {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
