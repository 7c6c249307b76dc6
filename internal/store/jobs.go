package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

const jobColumns = `id, reference, url, title, employer, location, band, salary_min, salary_max,
    salary_status, working_pattern, contract_type, hybrid, remote, sponsorship, sponsorship_text,
    closing_date, closing_estimated, description, essential, desirable, discovered_at, active`

// UpsertJob inserts job or merges it into the row with the same reference.
// Closing date, salary and description are refreshed, discovered_at keeps
// the earliest value and the job is marked active again.
func (s *queries) UpsertJob(ctx context.Context, job *model.JobRecord) (int64, bool, error) {
	var (
		id       int64
		inserted bool
	)
	err := s.q.QueryRowContext(ctx, `
INSERT INTO jobs (reference, url, title, employer, location, band, salary_min, salary_max,
    salary_status, working_pattern, contract_type, hybrid, remote, sponsorship, sponsorship_text,
    closing_date, closing_estimated, description, essential, desirable, discovered_at, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, TRUE)
ON CONFLICT (reference) DO UPDATE SET
    closing_date = EXCLUDED.closing_date,
    closing_estimated = EXCLUDED.closing_estimated,
    salary_min = EXCLUDED.salary_min,
    salary_max = EXCLUDED.salary_max,
    salary_status = EXCLUDED.salary_status,
    description = EXCLUDED.description,
    discovered_at = LEAST(jobs.discovered_at, EXCLUDED.discovered_at),
    active = TRUE,
    updated_at = NOW()
RETURNING id, (xmax = 0) AS inserted
`,
		job.Reference, job.URL, job.Title, job.Employer, job.Location, nullString(job.Band),
		job.SalaryMin, job.SalaryMax, string(job.SalaryStatus),
		nullString(job.WorkingPattern), nullString(job.ContractType),
		job.Hybrid, job.Remote, job.Sponsorship, job.SponsorshipText,
		model.Date(job.ClosingDate), job.ClosingEstimated, job.Description,
		textArray(job.Essential), textArray(job.Desirable), job.DiscoveredAt,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, err
	}
	job.ID = id
	job.Active = true
	return id, inserted, nil
}

func (s *queries) GetJob(ctx context.Context, reference string) (*model.JobRecord, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE reference = $1`, reference)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns active jobs ordered by closing date.
func (s *queries) ListJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.q.QueryContext(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE active = TRUE
ORDER BY closing_date ASC, id ASC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []model.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// DeactivateExpiredJobs marks active jobs that closed before today inactive.
func (s *queries) DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
UPDATE jobs
SET active = FALSE, updated_at = NOW()
WHERE active = TRUE AND closing_date < $1
`, model.Date(today))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.JobRecord, error) {
	var (
		j              model.JobRecord
		band           sql.NullString
		salaryMin      sql.NullFloat64
		salaryMax      sql.NullFloat64
		salaryStatus   string
		workingPattern sql.NullString
		contractType   sql.NullString
		closingDate    time.Time
	)
	if err := row.Scan(
		&j.ID,
		&j.Reference,
		&j.URL,
		&j.Title,
		&j.Employer,
		&j.Location,
		&band,
		&salaryMin,
		&salaryMax,
		&salaryStatus,
		&workingPattern,
		&contractType,
		&j.Hybrid,
		&j.Remote,
		&j.Sponsorship,
		&j.SponsorshipText,
		&closingDate,
		&j.ClosingEstimated,
		&j.Description,
		pq.Array(&j.Essential),
		pq.Array(&j.Desirable),
		&j.DiscoveredAt,
		&j.Active,
	); err != nil {
		return nil, err
	}
	j.Band = stringPtr(band)
	j.SalaryMin = floatPtr(salaryMin)
	j.SalaryMax = floatPtr(salaryMax)
	j.SalaryStatus = model.SalaryStatus(salaryStatus)
	j.WorkingPattern = stringPtr(workingPattern)
	j.ContractType = stringPtr(contractType)
	j.ClosingDate = model.Date(closingDate)
	return &j, nil
}
