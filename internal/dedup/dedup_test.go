package dedup_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/dedup"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

var dedupNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func listing(ref string, salary float64) model.JobRecord {
	return model.JobRecord{
		Reference:    ref,
		Title:        "Policy Adviser",
		Employer:     "Department for Widgets",
		SalaryMin:    &salary,
		SalaryMax:    &salary,
		SalaryStatus: model.SalaryStated,
		ClosingDate:  dedupNow.AddDate(0, 0, 10),
		DiscoveredAt: dedupNow,
	}
}

func plan(job model.JobRecord) model.Application {
	return model.NewApplication(0, "", model.PriorityNormal, dedupNow, dedupNow)
}

// ── Admission ──

func TestAdmit_NewJobQueuesApplication(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(db)

	out, err := d.Admit(ctx, listing("123", 40000), 7, plan)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if !out.NewJob || out.Duplicate || out.JobID == 0 {
		t.Errorf("outcome = %+v, want a new job", out)
	}
	if out.Application == nil {
		t.Fatal("no application created")
	}
	if out.Application.OwnerID != 7 || out.Application.JobRef != "123" || out.Application.State != model.StateQueued {
		t.Errorf("application = %+v", out.Application)
	}
	stored, err := db.GetApplication(ctx, out.Application.ID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if stored.State != model.StateQueued {
		t.Errorf("stored state = %s, want queued", stored.State)
	}
}

func TestAdmit_RepeatMergesJobAndSkipsApplication(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(db)

	first, err := d.Admit(ctx, listing("123", 40000), 7, plan)
	if err != nil {
		t.Fatalf("first Admit: %v", err)
	}
	later := listing("123", 45000)
	later.DiscoveredAt = dedupNow.Add(time.Hour)
	second, err := d.Admit(ctx, later, 7, plan)
	if err != nil {
		t.Fatalf("second Admit: %v", err)
	}

	if second.NewJob || !second.Duplicate {
		t.Errorf("second outcome = %+v, want duplicate", second)
	}
	if second.JobID != first.JobID {
		t.Errorf("job id changed from %d to %d", first.JobID, second.JobID)
	}
	if second.Application == nil || second.Application.ID != first.Application.ID {
		t.Errorf("duplicate should report the existing application")
	}

	job, err := db.GetJob(ctx, "123")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.SalaryMin == nil || *job.SalaryMin != 45000 {
		t.Errorf("salary = %v, want refreshed 45000", job.SalaryMin)
	}
	if !job.DiscoveredAt.Equal(dedupNow) {
		t.Errorf("DiscoveredAt = %s, want earliest %s", job.DiscoveredAt, dedupNow)
	}
	apps, _ := db.ListApplications(ctx, 7, 10, 0)
	if len(apps) != 1 {
		t.Errorf("applications = %d, want 1", len(apps))
	}
}

func TestAdmit_OtherOwnerGetsOwnApplication(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(db)

	if _, err := d.Admit(ctx, listing("123", 40000), 7, plan); err != nil {
		t.Fatalf("Admit owner 7: %v", err)
	}
	out, err := d.Admit(ctx, listing("123", 40000), 8, plan)
	if err != nil {
		t.Fatalf("Admit owner 8: %v", err)
	}
	if out.NewJob || out.Duplicate || out.Application == nil {
		t.Errorf("outcome = %+v, want existing job with new application", out)
	}
}

func TestAdmit_TerminalApplicationAllowsNewOne(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(db)

	first, err := d.Admit(ctx, listing("123", 40000), 7, plan)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	ok, err := db.TransitionApplication(ctx, first.Application.ID, model.StateQueued, model.StateCancelled, model.Change{At: dedupNow})
	if err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}

	again, err := d.Admit(ctx, listing("123", 40000), 7, plan)
	if err != nil {
		t.Fatalf("Admit after cancel: %v", err)
	}
	if again.Duplicate || again.Application == nil || again.Application.ID == first.Application.ID {
		t.Errorf("outcome = %+v, want a fresh application", again)
	}
}

func TestAdmit_PlanCannotOverrideIdentity(t *testing.T) {
	d := dedup.New(store.NewMemoryStore())
	out, err := d.Admit(context.Background(), listing("123", 40000), 7, func(model.JobRecord) model.Application {
		app := model.NewApplication(99, "other", model.PriorityLow, dedupNow, dedupNow)
		app.State = model.StateReady
		return app
	})
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	a := out.Application
	if a.OwnerID != 7 || a.JobRef != "123" || a.State != model.StateQueued {
		t.Errorf("application = %d/%s/%s, want 7/123/queued", a.OwnerID, a.JobRef, a.State)
	}
}

// ── Atomicity ──

type failingStore struct {
	inner *store.MemoryStore
}

func (s failingStore) WithinTx(ctx context.Context, fn func(dedup.Repository) error) error {
	return s.inner.WithinTx(ctx, func(r dedup.Repository) error {
		return fn(failingRepo{Repository: r})
	})
}

type failingRepo struct {
	dedup.Repository
}

var errInsert = errors.New("insert refused")

func (failingRepo) InsertApplication(ctx context.Context, app *model.Application) (bool, error) {
	return false, errInsert
}

func TestAdmit_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(failingStore{inner: db})

	_, err := d.Admit(ctx, listing("123", 40000), 7, plan)
	if !errors.Is(err, errInsert) {
		t.Fatalf("Admit error = %v, want errInsert", err)
	}
	if _, err := db.GetJob(ctx, "123"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetJob after rollback = %v, want ErrNotFound", err)
	}
}

func TestAdmit_ConcurrentSingleApplication(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	d := dedup.New(db)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Admit(ctx, listing("123", 40000), 7, plan)
			if err != nil {
				t.Errorf("Admit: %v", err)
				return
			}
			if !out.Duplicate {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created %d applications, want 1", created)
	}
	apps, _ := db.ListApplications(ctx, 7, 50, 0)
	if len(apps) != 1 {
		t.Errorf("stored applications = %d, want 1", len(apps))
	}
}
