// Package dedup admits extracted jobs exactly once per canonical reference
// and keeps at most one open application per owner and job.
package dedup

import (
	"context"
	"fmt"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

// Repository is the persistence surface the deduplicator needs, scoped to
// one transaction.
type Repository interface {
	// UpsertJob inserts job or merges it into the stored row with the same
	// reference, reporting the row id and whether it was newly inserted.
	UpsertJob(ctx context.Context, job *model.JobRecord) (int64, bool, error)
	// FindActiveApplication returns the non-terminal application for owner
	// and jobRef, or nil when there is none.
	FindActiveApplication(ctx context.Context, owner int64, jobRef string) (*model.Application, error)
	// InsertApplication stores app unless an active one already exists for
	// the same owner and job, in which case it reports false.
	InsertApplication(ctx context.Context, app *model.Application) (bool, error)
}

// Store runs fn atomically. An error from fn rolls everything back.
type Store interface {
	WithinTx(ctx context.Context, fn func(Repository) error) error
}

// PlanFunc builds the queued application for a newly admitted job.
type PlanFunc func(job model.JobRecord) model.Application

// Outcome reports what Admit did.
type Outcome struct {
	JobID       int64
	NewJob      bool
	Duplicate   bool
	Application *model.Application
}

type Deduplicator struct {
	store Store
}

func New(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// Admit upserts job and, unless owner already has an open application for
// it, inserts the application built by plan. All of it commits or none of it.
func (d *Deduplicator) Admit(ctx context.Context, job model.JobRecord, owner int64, plan PlanFunc) (Outcome, error) {
	var out Outcome
	err := d.store.WithinTx(ctx, func(repo Repository) error {
		out = Outcome{}
		id, inserted, err := repo.UpsertJob(ctx, &job)
		if err != nil {
			return fmt.Errorf("upsert job %s: %w", job.Reference, err)
		}
		out.JobID, out.NewJob = id, inserted

		existing, err := repo.FindActiveApplication(ctx, owner, job.Reference)
		if err != nil {
			return fmt.Errorf("find application %d/%s: %w", owner, job.Reference, err)
		}
		if existing != nil {
			out.Duplicate = true
			out.Application = existing
			return nil
		}

		app := plan(job)
		app.OwnerID = owner
		app.JobRef = job.Reference
		app.State = model.StateQueued
		ok, err := repo.InsertApplication(ctx, &app)
		if err != nil {
			return fmt.Errorf("insert application %d/%s: %w", owner, job.Reference, err)
		}
		if !ok {
			out.Duplicate = true
			return nil
		}
		out.Application = &app
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}
