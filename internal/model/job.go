package model

import "time"

// SalaryStatus distinguishes a stated salary from one the listing declined to give.
type SalaryStatus string

const (
	SalaryStated      SalaryStatus = "stated"
	SalaryUnspecified SalaryStatus = "unspecified"
)

// JobRecord is one extracted listing. Reference is the source-assigned
// identifier and the dedup key.
type JobRecord struct {
	ID               int64        `json:"id,omitempty"`
	Reference        string       `json:"reference"`
	URL              string       `json:"url"`
	Title            string       `json:"title"`
	Employer         string       `json:"employer"`
	Location         string       `json:"location"`
	Band             *string      `json:"band,omitempty"`
	SalaryMin        *float64     `json:"salary_min"`
	SalaryMax        *float64     `json:"salary_max"`
	SalaryStatus     SalaryStatus `json:"salary_status"`
	WorkingPattern   *string      `json:"working_pattern,omitempty"`
	ContractType     *string      `json:"contract_type,omitempty"`
	Hybrid           bool         `json:"hybrid"`
	Remote           bool         `json:"remote"`
	Sponsorship      bool         `json:"sponsorship"`
	SponsorshipText  string       `json:"sponsorship_text,omitempty"`
	ClosingDate      time.Time    `json:"closing_date"`
	ClosingEstimated bool         `json:"closing_estimated"`
	Description      string       `json:"description"`
	Essential        []string     `json:"essential,omitempty"`
	Desirable        []string     `json:"desirable,omitempty"`
	DiscoveredAt     time.Time    `json:"discovered_at"`
	Active           bool         `json:"active"`
}

// DaysUntilClosing counts whole calendar days from the date of now to the
// closing date. It is negative once the closing date has passed.
func (j JobRecord) DaysUntilClosing(now time.Time) int {
	return DaysBetween(now, j.ClosingDate)
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from the day of a to the day of b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
