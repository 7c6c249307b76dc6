package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

const applicationColumns = `id, owner_id, job_ref, state, priority, scheduled_submit_at,
    attempts, last_error, created_at, updated_at`

const openStates = `('queued', 'processing', 'ready', 'auto_submitting', 'failed')`

func (s *queries) FindActiveApplication(ctx context.Context, owner int64, jobRef string) (*model.Application, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE owner_id = $1 AND job_ref = $2 AND state IN `+openStates+`
LIMIT 1
`, owner, jobRef)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return app, err
}

// InsertApplication relies on the partial unique index to refuse a second
// open application for the same owner and job.
func (s *queries) InsertApplication(ctx context.Context, app *model.Application) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
INSERT INTO applications (id, owner_id, job_ref, state, priority, scheduled_submit_at,
    attempts, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (owner_id, job_ref) WHERE state NOT IN ('submitted', 'permanently_failed', 'cancelled')
DO NOTHING
`, app.ID, app.OwnerID, app.JobRef, string(app.State), string(app.Priority), app.ScheduledSubmitAt,
		app.Attempts, nullString(app.LastError), app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *queries) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return app, err
}

// TransitionApplication is a compare-and-set on state. It reports false when
// the row exists but is no longer in state from.
func (s *queries) TransitionApplication(ctx context.Context, id uuid.UUID, from, to model.State, change model.Change) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
UPDATE applications
SET state = $3,
    attempts = COALESCE($4, attempts),
    last_error = COALESCE($5, last_error),
    scheduled_submit_at = COALESCE($6, scheduled_submit_at),
    updated_at = $7
WHERE id = $1 AND state = $2
`, id, string(from), string(to), change.Attempts, change.LastError, change.ScheduledSubmitAt, change.At)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// ApplicationsDue returns ready applications scheduled at or before now.
func (s *queries) ApplicationsDue(ctx context.Context, now time.Time, limit int) ([]model.Application, error) {
	limit = clampLimit(limit, 100, 1000)
	return s.listApplications(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE state = 'ready' AND scheduled_submit_at <= $1
ORDER BY scheduled_submit_at ASC, created_at ASC
LIMIT $2
`, now, limit)
}

func (s *queries) ListApplications(ctx context.Context, owner int64, limit, offset int) ([]model.Application, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}
	return s.listApplications(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE owner_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3
`, owner, limit, offset)
}

func (s *queries) ListApplicationsInState(ctx context.Context, state model.State, limit int) ([]model.Application, error) {
	limit = clampLimit(limit, 100, 1000)
	return s.listApplications(ctx, `
SELECT `+applicationColumns+`
FROM applications
WHERE state = $1
ORDER BY scheduled_submit_at ASC, created_at ASC
LIMIT $2
`, string(state), limit)
}

func (s *queries) AppendEvent(ctx context.Context, ev model.ApplicationEvent) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO application_events (application_id, kind, note, at)
VALUES ($1, $2, $3, $4)
`, ev.ApplicationID, ev.Kind, ev.Note, ev.At)
	return err
}

func (s *queries) listApplications(ctx context.Context, query string, args ...any) ([]model.Application, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func scanApplication(row rowScanner) (*model.Application, error) {
	var (
		a         model.Application
		state     string
		priority  string
		lastError sql.NullString
	)
	if err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.JobRef,
		&state,
		&priority,
		&a.ScheduledSubmitAt,
		&a.Attempts,
		&lastError,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.State = model.State(state)
	a.Priority = model.Priority(priority)
	a.LastError = stringPtr(lastError)
	return &a, nil
}
