package browser

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/textutil"
)

// jobPostingHint is the subset of a schema.org JobPosting used to fill gaps
// left by the CSS selectors.
type jobPostingHint struct {
	Identifier     string
	Title          string
	Employer       string
	Location       string
	Description    string
	ValidThrough   time.Time
	EmploymentType string
}

func parseJobPosting(raw string) (jobPostingHint, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return jobPostingHint{}, false
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return jobPostingHint{}, false
	}
	posting := findJobPosting(payload)
	if posting == nil {
		return jobPostingHint{}, false
	}

	hint := jobPostingHint{
		Identifier:     identifier(posting["identifier"]),
		Title:          stringField(posting["title"]),
		Employer:       orgName(posting["hiringOrganization"]),
		Location:       parseLocation(posting["jobLocation"]),
		ValidThrough:   parseDate(posting["validThrough"]),
		EmploymentType: employmentType(posting["employmentType"]),
	}
	if desc := stringField(posting["description"]); desc != "" {
		if text, err := textutil.HTMLToText(desc); err == nil {
			hint.Description = text
		} else {
			hint.Description = desc
		}
	}
	return hint, true
}

// fill copies hint values into fields the selectors left empty.
func (h jobPostingHint) fill(d *Detail) {
	fillString(&d.Reference, h.Identifier)
	fillString(&d.Title, h.Title)
	fillString(&d.Employer, h.Employer)
	fillString(&d.Location, h.Location)
	fillString(&d.Description, h.Description)
	fillString(&d.WorkingPattern, h.EmploymentType)
	if !h.ValidThrough.IsZero() {
		fillString(&d.ClosingDate, h.ValidThrough.Format("2 January 2006"))
	}
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func findJobPosting(payload any) map[string]any {
	switch t := payload.(type) {
	case map[string]any:
		if isJobPostingType(t["@type"]) {
			return t
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				if found := findJobPosting(item); found != nil {
					return found
				}
			}
		}
	case []any:
		for _, item := range t {
			if found := findJobPosting(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if val, ok := t["@value"].(string); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

func identifier(v any) string {
	if s := stringField(v); s != "" {
		return s
	}
	if m, ok := v.(map[string]any); ok {
		switch val := m["value"].(type) {
		case string:
			return strings.TrimSpace(val)
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}

func orgName(v any) string {
	if name := stringField(v); name != "" {
		return name
	}
	if org, ok := v.(map[string]any); ok {
		return stringField(org["name"])
	}
	return ""
}

func parseLocation(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if loc := parseLocation(item); loc != "" {
				return loc
			}
		}
	case map[string]any:
		if addr, ok := t["address"].(map[string]any); ok {
			return joinParts(
				stringField(addr["addressLocality"]),
				stringField(addr["addressRegion"]),
			)
		}
		if name := stringField(t["name"]); name != "" {
			return name
		}
	}
	return ""
}

func employmentType(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(strings.TrimSpace(t), "_", " ")
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				parts = append(parts, strings.ReplaceAll(s, "_", " "))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func parseDate(v any) time.Time {
	val := stringField(v)
	if val == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t
		}
	}
	return time.Time{}
}

func joinParts(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out = append(out, strings.TrimSpace(p))
	}
	return strings.Join(out, ", ")
}
