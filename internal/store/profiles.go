package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

const profileColumns = `owner_id, keywords, locations, radius_miles, bands, working_patterns,
    contract_types, requires_sponsorship, exclude_keywords, min_days_to_close, max_days_to_close,
    automation_enabled, paused, active`

// ListProfiles returns every active profile. Callers filter on Runnable.
func (s *queries) ListProfiles(ctx context.Context) ([]model.SearchProfile, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT `+profileColumns+`
FROM search_profiles
WHERE active = TRUE
ORDER BY owner_id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []model.SearchProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *queries) GetProfile(ctx context.Context, owner int64) (*model.SearchProfile, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM search_profiles WHERE owner_id = $1`, owner)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *queries) UpsertProfile(ctx context.Context, p model.SearchProfile) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO search_profiles (owner_id, keywords, locations, radius_miles, bands, working_patterns,
    contract_types, requires_sponsorship, exclude_keywords, min_days_to_close, max_days_to_close,
    automation_enabled, paused, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (owner_id) DO UPDATE SET
    keywords = EXCLUDED.keywords,
    locations = EXCLUDED.locations,
    radius_miles = EXCLUDED.radius_miles,
    bands = EXCLUDED.bands,
    working_patterns = EXCLUDED.working_patterns,
    contract_types = EXCLUDED.contract_types,
    requires_sponsorship = EXCLUDED.requires_sponsorship,
    exclude_keywords = EXCLUDED.exclude_keywords,
    min_days_to_close = EXCLUDED.min_days_to_close,
    max_days_to_close = EXCLUDED.max_days_to_close,
    automation_enabled = EXCLUDED.automation_enabled,
    paused = EXCLUDED.paused,
    active = EXCLUDED.active,
    updated_at = NOW()
`, p.OwnerID, textArray(p.Keywords), textArray(p.Locations), p.RadiusMiles, textArray(p.Bands),
		textArray(p.WorkingPatterns), textArray(p.ContractTypes), p.RequiresSponsorship,
		textArray(p.ExcludeKeywords), p.MinDaysToClose, p.MaxDaysToClose,
		p.AutomationEnabled, p.Paused, p.Active)
	return err
}

func (s *queries) SetPaused(ctx context.Context, owner int64, paused bool) error {
	res, err := s.q.ExecContext(ctx, `
UPDATE search_profiles
SET paused = $2, updated_at = NOW()
WHERE owner_id = $1
`, owner, paused)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row rowScanner) (*model.SearchProfile, error) {
	var p model.SearchProfile
	if err := row.Scan(
		&p.OwnerID,
		pq.Array(&p.Keywords),
		pq.Array(&p.Locations),
		&p.RadiusMiles,
		pq.Array(&p.Bands),
		pq.Array(&p.WorkingPatterns),
		pq.Array(&p.ContractTypes),
		&p.RequiresSponsorship,
		pq.Array(&p.ExcludeKeywords),
		&p.MinDaysToClose,
		&p.MaxDaysToClose,
		&p.AutomationEnabled,
		&p.Paused,
		&p.Active,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
