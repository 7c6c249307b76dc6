package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/dedup"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

var storeNow = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestMemoryStore_UpsertJobNormalisesClosingDate(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	job := model.JobRecord{Reference: "1", ClosingDate: time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)}

	id, inserted, err := db.UpsertJob(ctx, &job)
	if err != nil || !inserted || id == 0 {
		t.Fatalf("UpsertJob = %d, %v, %v", id, inserted, err)
	}
	got, err := db.GetJob(ctx, "1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if !got.ClosingDate.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) || !got.Active {
		t.Errorf("stored job = %s active=%v", got.ClosingDate, got.Active)
	}

	again := model.JobRecord{Reference: "1", ClosingDate: job.ClosingDate}
	id2, inserted, err := db.UpsertJob(ctx, &again)
	if err != nil || inserted || id2 != id || again.ID != id {
		t.Errorf("second UpsertJob = %d, %v, %v (job.ID %d)", id2, inserted, err, again.ID)
	}
}

func TestMemoryStore_ListJobsPaginates(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	for i, ref := range []string{"c", "a", "b"} {
		job := model.JobRecord{Reference: ref, ClosingDate: storeNow.AddDate(0, 0, 3-i)}
		if _, _, err := db.UpsertJob(ctx, &job); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	first, _ := db.ListJobs(ctx, 2, 0)
	if len(first) != 2 || first[0].Reference != "b" || first[1].Reference != "a" {
		t.Errorf("first page = %v", refs(first))
	}
	second, _ := db.ListJobs(ctx, 2, 2)
	if len(second) != 1 || second[0].Reference != "c" {
		t.Errorf("second page = %v", refs(second))
	}
	if past, _ := db.ListJobs(ctx, 2, 10); len(past) != 0 {
		t.Errorf("page past end = %v", refs(past))
	}
}

func refs(jobs []model.JobRecord) []string {
	var out []string
	for _, j := range jobs {
		out = append(out, j.Reference)
	}
	return out
}

func TestMemoryStore_TransitionIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	app := model.NewApplication(1, "ref", model.PriorityLow, storeNow, storeNow)
	if _, err := db.InsertApplication(ctx, &app); err != nil {
		t.Fatalf("InsertApplication: %v", err)
	}

	attempts := 2
	ok, err := db.TransitionApplication(ctx, app.ID, model.StateQueued, model.StateProcessing, model.Change{Attempts: &attempts, At: storeNow.Add(time.Minute)})
	if err != nil || !ok {
		t.Fatalf("first transition ok=%v err=%v", ok, err)
	}
	ok, err = db.TransitionApplication(ctx, app.ID, model.StateQueued, model.StateCancelled, model.Change{At: storeNow})
	if err != nil || ok {
		t.Errorf("stale transition ok=%v err=%v, want false/nil", ok, err)
	}

	got, _ := db.GetApplication(ctx, app.ID)
	if got.State != model.StateProcessing || got.Attempts != 2 || !got.UpdatedAt.Equal(storeNow.Add(time.Minute)) {
		t.Errorf("application = %+v", got)
	}

	if _, err := db.TransitionApplication(ctx, uuid.New(), model.StateQueued, model.StateProcessing, model.Change{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_OneOpenApplicationPerOwnerAndJob(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	first := model.NewApplication(1, "ref", model.PriorityLow, storeNow, storeNow)
	second := model.NewApplication(1, "ref", model.PriorityLow, storeNow, storeNow)

	if ok, _ := db.InsertApplication(ctx, &first); !ok {
		t.Fatal("first insert refused")
	}
	if ok, _ := db.InsertApplication(ctx, &second); ok {
		t.Error("second open application accepted")
	}
	if found, _ := db.FindActiveApplication(ctx, 1, "ref"); found == nil || found.ID != first.ID {
		t.Errorf("FindActiveApplication = %+v", found)
	}
	if found, _ := db.FindActiveApplication(ctx, 2, "ref"); found != nil {
		t.Errorf("other owner found %+v", found)
	}
}

func TestMemoryStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	boom := errors.New("boom")

	err := db.WithinTx(ctx, func(r dedup.Repository) error {
		job := model.JobRecord{Reference: "tx"}
		if _, _, err := r.UpsertJob(ctx, &job); err != nil {
			return err
		}
		app := model.NewApplication(1, "tx", model.PriorityLow, storeNow, storeNow)
		if _, err := r.InsertApplication(ctx, &app); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx error = %v", err)
	}
	if _, err := db.GetJob(ctx, "tx"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("job survived rollback: %v", err)
	}
	if found, _ := db.FindActiveApplication(ctx, 1, "tx"); found != nil {
		t.Error("application survived rollback")
	}
}

func TestMemoryStore_Profiles(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	active := model.SearchProfile{OwnerID: 2, Keywords: []string{"policy"}, Locations: []string{"Leeds"}, Active: true}
	inactive := model.SearchProfile{OwnerID: 1, Keywords: []string{"data"}, Locations: []string{"York"}}
	for _, p := range []model.SearchProfile{active, inactive} {
		if err := db.UpsertProfile(ctx, p); err != nil {
			t.Fatalf("UpsertProfile: %v", err)
		}
	}

	profiles, _ := db.ListProfiles(ctx)
	if len(profiles) != 1 || profiles[0].OwnerID != 2 {
		t.Errorf("ListProfiles = %+v, want only owner 2", profiles)
	}

	if err := db.SetPaused(ctx, 2, true); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	got, err := db.GetProfile(ctx, 2)
	if err != nil || !got.Paused {
		t.Errorf("GetProfile = %+v, %v; want paused", got, err)
	}
	if err := db.SetPaused(ctx, 99, true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetPaused unknown = %v, want ErrNotFound", err)
	}
	if _, err := db.GetProfile(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetProfile unknown = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Events(t *testing.T) {
	ctx := context.Background()
	db := store.NewMemoryStore()
	app := model.NewApplication(1, "ref", model.PriorityLow, storeNow, storeNow)
	db.InsertApplication(ctx, &app)

	if err := db.AppendEvent(ctx, model.ApplicationEvent{ApplicationID: app.ID, Kind: "interview_invite", At: storeNow}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := db.AppendEvent(ctx, model.ApplicationEvent{ApplicationID: uuid.New(), Kind: "interview_invite"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AppendEvent unknown = %v, want ErrNotFound", err)
	}
	if evs := db.Events(app.ID); len(evs) != 1 {
		t.Errorf("Events = %d, want 1", len(evs))
	}
}
