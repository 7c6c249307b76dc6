package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/dedup"
	"github.com/baxromumarov/job-autopilot/internal/model"
)

// MemoryStore keeps everything in process memory with the same contract as
// Store. Transactions are serialised and rolled back by snapshot.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	jobs     map[string]model.JobRecord
	apps     map[uuid.UUID]model.Application
	profiles map[int64]model.SearchProfile
	events   []model.ApplicationEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     map[string]model.JobRecord{},
		apps:     map[uuid.UUID]model.Application{},
		profiles: map[int64]model.SearchProfile{},
	}
}

// memTx runs repository calls against a store whose lock is already held.
type memTx struct {
	m *MemoryStore
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(dedup.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(memTx{m: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	nextID int64
	jobs   map[string]model.JobRecord
	apps   map[uuid.UUID]model.Application
}

func (m *MemoryStore) snapshot() memSnapshot {
	s := memSnapshot{
		nextID: m.nextID,
		jobs:   make(map[string]model.JobRecord, len(m.jobs)),
		apps:   make(map[uuid.UUID]model.Application, len(m.apps)),
	}
	for k, v := range m.jobs {
		s.jobs[k] = v
	}
	for k, v := range m.apps {
		s.apps[k] = v
	}
	return s
}

func (m *MemoryStore) restore(s memSnapshot) {
	m.nextID = s.nextID
	m.jobs = s.jobs
	m.apps = s.apps
}

func (t memTx) UpsertJob(ctx context.Context, job *model.JobRecord) (int64, bool, error) {
	return t.m.upsertJob(job)
}

func (t memTx) FindActiveApplication(ctx context.Context, owner int64, jobRef string) (*model.Application, error) {
	return t.m.findActive(owner, jobRef), nil
}

func (t memTx) InsertApplication(ctx context.Context, app *model.Application) (bool, error) {
	return t.m.insertApplication(app), nil
}

func (m *MemoryStore) UpsertJob(ctx context.Context, job *model.JobRecord) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertJob(job)
}

func (m *MemoryStore) upsertJob(job *model.JobRecord) (int64, bool, error) {
	job.ClosingDate = model.Date(job.ClosingDate)
	job.Active = true
	old, ok := m.jobs[job.Reference]
	if !ok {
		m.nextID++
		job.ID = m.nextID
		m.jobs[job.Reference] = cloneJob(*job)
		return job.ID, true, nil
	}

	old.ClosingDate = job.ClosingDate
	old.ClosingEstimated = job.ClosingEstimated
	old.SalaryMin = job.SalaryMin
	old.SalaryMax = job.SalaryMax
	old.SalaryStatus = job.SalaryStatus
	old.Description = job.Description
	if job.DiscoveredAt.Before(old.DiscoveredAt) {
		old.DiscoveredAt = job.DiscoveredAt
	}
	old.Active = true
	m.jobs[job.Reference] = cloneJob(old)
	job.ID = old.ID
	return old.ID, false, nil
}

func (m *MemoryStore) GetJob(ctx context.Context, reference string) (*model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[reference]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneJob(job)
	return &out, nil
}

func (m *MemoryStore) ListJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var jobs []model.JobRecord
	for _, j := range m.jobs {
		if j.Active {
			jobs = append(jobs, cloneJob(j))
		}
	}
	sort.Slice(jobs, func(i, k int) bool {
		if !jobs[i].ClosingDate.Equal(jobs[k].ClosingDate) {
			return jobs[i].ClosingDate.Before(jobs[k].ClosingDate)
		}
		return jobs[i].ID < jobs[k].ID
	})
	return page(jobs, clampLimit(limit, 20, 200), offset), nil
}

func (m *MemoryStore) DeactivateExpiredJobs(ctx context.Context, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := model.Date(today)
	var n int64
	for ref, j := range m.jobs {
		if j.Active && j.ClosingDate.Before(cutoff) {
			j.Active = false
			m.jobs[ref] = j
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) FindActiveApplication(ctx context.Context, owner int64, jobRef string) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findActive(owner, jobRef), nil
}

func (m *MemoryStore) findActive(owner int64, jobRef string) *model.Application {
	for _, a := range m.apps {
		if a.OwnerID == owner && a.JobRef == jobRef && !model.IsTerminal(a.State) {
			out := a
			return &out
		}
	}
	return nil
}

func (m *MemoryStore) InsertApplication(ctx context.Context, app *model.Application) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertApplication(app), nil
}

func (m *MemoryStore) insertApplication(app *model.Application) bool {
	if !model.IsTerminal(app.State) && m.findActive(app.OwnerID, app.JobRef) != nil {
		return false
	}
	if _, exists := m.apps[app.ID]; exists {
		return false
	}
	m.apps[app.ID] = *app
	return true
}

func (m *MemoryStore) GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) TransitionApplication(ctx context.Context, id uuid.UUID, from, to model.State, change model.Change) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return false, ErrNotFound
	}
	if a.State != from {
		return false, nil
	}
	a.State = to
	if change.Attempts != nil {
		a.Attempts = *change.Attempts
	}
	if change.LastError != nil {
		msg := *change.LastError
		a.LastError = &msg
	}
	if change.ScheduledSubmitAt != nil {
		a.ScheduledSubmitAt = *change.ScheduledSubmitAt
	}
	a.UpdatedAt = change.At
	m.apps[id] = a
	return true, nil
}

func (m *MemoryStore) ApplicationsDue(ctx context.Context, now time.Time, limit int) ([]model.Application, error) {
	return m.selectApplications(clampLimit(limit, 100, 1000), 0, byScheduled, func(a model.Application) bool {
		return a.State == model.StateReady && !a.ScheduledSubmitAt.After(now)
	}), nil
}

func (m *MemoryStore) ListApplications(ctx context.Context, owner int64, limit, offset int) ([]model.Application, error) {
	return m.selectApplications(clampLimit(limit, 20, 200), offset, byNewest, func(a model.Application) bool {
		return a.OwnerID == owner
	}), nil
}

func (m *MemoryStore) ListApplicationsInState(ctx context.Context, state model.State, limit int) ([]model.Application, error) {
	return m.selectApplications(clampLimit(limit, 100, 1000), 0, byScheduled, func(a model.Application) bool {
		return a.State == state
	}), nil
}

func byScheduled(a, b model.Application) bool {
	if !a.ScheduledSubmitAt.Equal(b.ScheduledSubmitAt) {
		return a.ScheduledSubmitAt.Before(b.ScheduledSubmitAt)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func byNewest(a, b model.Application) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (m *MemoryStore) selectApplications(limit, offset int, less func(a, b model.Application) bool, keep func(model.Application) bool) []model.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Application
	for _, a := range m.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, k int) bool { return less(out[i], out[k]) })
	return page(out, limit, offset)
}

func (m *MemoryStore) AppendEvent(ctx context.Context, ev model.ApplicationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[ev.ApplicationID]; !ok {
		return ErrNotFound
	}
	m.events = append(m.events, ev)
	return nil
}

// Events returns the recorded events for one application in order.
func (m *MemoryStore) Events(id uuid.UUID) []model.ApplicationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ApplicationEvent
	for _, ev := range m.events {
		if ev.ApplicationID == id {
			out = append(out, ev)
		}
	}
	return out
}

func (m *MemoryStore) ListProfiles(ctx context.Context) ([]model.SearchProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SearchProfile
	for _, p := range m.profiles {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].OwnerID < out[k].OwnerID })
	return out, nil
}

func (m *MemoryStore) GetProfile(ctx context.Context, owner int64) (*model.SearchProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[owner]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) UpsertProfile(ctx context.Context, p model.SearchProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.OwnerID] = p
	return nil
}

func (m *MemoryStore) SetPaused(ctx context.Context, owner int64, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[owner]
	if !ok {
		return ErrNotFound
	}
	p.Paused = paused
	m.profiles[owner] = p
	return nil
}

func cloneJob(j model.JobRecord) model.JobRecord {
	j.Essential = append([]string(nil), j.Essential...)
	j.Desirable = append([]string(nil), j.Desirable...)
	return j
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
