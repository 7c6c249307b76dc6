package model

// SearchProfile is one owner's saved automation criteria.
type SearchProfile struct {
	OwnerID             int64    `json:"owner_id"`
	Keywords            []string `json:"keywords"`
	Locations           []string `json:"locations"`
	RadiusMiles         int      `json:"radius_miles"`
	Bands               []string `json:"bands"`
	WorkingPatterns     []string `json:"working_patterns"`
	ContractTypes       []string `json:"contract_types"`
	RequiresSponsorship bool     `json:"requires_sponsorship"`
	ExcludeKeywords     []string `json:"exclude_keywords"`
	MinDaysToClose      int      `json:"min_days_to_close"`
	MaxDaysToClose      int      `json:"max_days_to_close"`
	AutomationEnabled   bool     `json:"automation_enabled"`
	Paused              bool     `json:"paused"`
	Active              bool     `json:"active"`
}

// Runnable reports whether the supervisor should crawl for this profile.
func (p SearchProfile) Runnable() bool {
	return p.Active && p.AutomationEnabled && !p.Paused
}

// ValidationError describes a rejected profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the fields a crawl depends on.
func (p SearchProfile) Validate() error {
	if p.OwnerID <= 0 {
		return &ValidationError{Field: "owner_id", Message: "must be positive"}
	}
	if len(p.Keywords) == 0 {
		return &ValidationError{Field: "keywords", Message: "at least one keyword is required"}
	}
	if len(p.Locations) == 0 {
		return &ValidationError{Field: "locations", Message: "at least one location is required"}
	}
	if p.MinDaysToClose < 0 {
		return &ValidationError{Field: "min_days_to_close", Message: "must not be negative"}
	}
	if p.MaxDaysToClose < p.MinDaysToClose {
		return &ValidationError{Field: "max_days_to_close", Message: "must not be below min_days_to_close"}
	}
	return nil
}
