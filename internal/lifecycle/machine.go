// Package lifecycle drives applications through their state graph. Every
// move is a compare-and-set on the stored state, so two writers racing on
// the same application cannot both win.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/notify"
	"github.com/baxromumarov/job-autopilot/internal/observability"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

var (
	// ErrConflict means the application changed state under the caller.
	ErrConflict = errors.New("application state changed concurrently")
	// ErrNotSubmitted is returned for interview events on an application
	// that was never submitted.
	ErrNotSubmitted = errors.New("application has not been submitted")
	// ErrUnknownEvent is returned for event kinds other than interview events.
	ErrUnknownEvent = errors.New("unknown application event")
)

const (
	dueLimit     = 500
	prepareBatch = 200
)

// Store is the application persistence the machine needs.
type Store interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*model.Application, error)
	// TransitionApplication moves id from → to and applies change, but only
	// while the stored state is still from. It reports whether it did.
	TransitionApplication(ctx context.Context, id uuid.UUID, from, to model.State, change model.Change) (bool, error)
	ApplicationsDue(ctx context.Context, now time.Time, limit int) ([]model.Application, error)
	ListApplications(ctx context.Context, owner int64, limit, offset int) ([]model.Application, error)
	ListApplicationsInState(ctx context.Context, state model.State, limit int) ([]model.Application, error)
	GetJob(ctx context.Context, reference string) (*model.JobRecord, error)
	AppendEvent(ctx context.Context, ev model.ApplicationEvent) error
}

type Config struct {
	MaxAttempts   int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 3, RetryBase: 15 * time.Minute, RetryMaxDelay: 6 * time.Hour}
}

type Machine struct {
	store    Store
	notifier notify.Notifier
	cfg      Config
	now      func() time.Time
}

func New(s Store, n notify.Notifier, cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = def.RetryMaxDelay
	}
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Machine{store: s, notifier: n, cfg: cfg, now: time.Now}
}

// WithClock replaces the machine's time source.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Transition moves the application to state to. A move to failed goes
// through Fail so the retry policy applies; reason becomes the last error.
func (m *Machine) Transition(ctx context.Context, id uuid.UUID, to model.State, reason string) (*model.Application, error) {
	if to == model.StateFailed {
		return m.Fail(ctx, id, reason)
	}
	app, err := m.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	change := model.Change{At: m.now()}
	if reason != "" && to == model.StatePermanentlyFailed {
		change.LastError = &reason
	}
	if err := m.move(ctx, app, to, change); err != nil {
		return nil, err
	}
	return app, nil
}

// Cancel is the owner's withdrawal from any non-terminal state.
func (m *Machine) Cancel(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	return m.Transition(ctx, id, model.StateCancelled, "")
}

// Fail records a failed attempt. The application is requeued after an
// exponential backoff, or marked permanently failed once the attempt cap
// is reached.
func (m *Machine) Fail(ctx context.Context, id uuid.UUID, reason string) (*model.Application, error) {
	app, err := m.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "unspecified failure"
	}
	attempts := app.Attempts + 1
	if err := m.move(ctx, app, model.StateFailed, model.Change{
		Attempts:  &attempts,
		LastError: &reason,
		At:        m.now(),
	}); err != nil {
		return nil, err
	}
	if err := m.settle(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// settle moves a failed application on to queued or permanently_failed.
func (m *Machine) settle(ctx context.Context, app *model.Application) error {
	now := m.now()
	if app.Attempts >= m.cfg.MaxAttempts {
		return m.move(ctx, app, model.StatePermanentlyFailed, model.Change{At: now})
	}
	at := now.Add(m.Backoff(app.Attempts))
	return m.move(ctx, app, model.StateQueued, model.Change{ScheduledSubmitAt: &at, At: now})
}

// Backoff returns the retry delay after the given number of attempts:
// RetryBase doubled per attempt, capped at RetryMaxDelay.
func (m *Machine) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := m.cfg.RetryBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= m.cfg.RetryMaxDelay {
			return m.cfg.RetryMaxDelay
		}
	}
	if d > m.cfg.RetryMaxDelay {
		return m.cfg.RetryMaxDelay
	}
	return d
}

// move performs one checked compare-and-set and updates app in place.
func (m *Machine) move(ctx context.Context, app *model.Application, to model.State, change model.Change) error {
	if err := model.CheckTransition(app.State, to); err != nil {
		return err
	}
	ok, err := m.store.TransitionApplication(ctx, app.ID, app.State, to, change)
	if err != nil {
		return fmt.Errorf("transition %s: %w", app.ID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is no longer %s", ErrConflict, app.ID, app.State)
	}

	from := app.State
	app.State = to
	app.UpdatedAt = change.At
	if change.Attempts != nil {
		app.Attempts = *change.Attempts
	}
	if change.LastError != nil {
		app.LastError = change.LastError
	}
	if change.ScheduledSubmitAt != nil {
		app.ScheduledSubmitAt = *change.ScheduledSubmitAt
	}
	observability.IncTransition(string(to))
	slog.Info("application transition", "application", app.ID, "owner", app.OwnerID, "from", from, "to", to)

	switch to {
	case model.StateSubmitted:
		m.notify(ctx, app, notify.KindSubmitted, "")
	case model.StatePermanentlyFailed:
		detail := ""
		if app.LastError != nil {
			detail = *app.LastError
		}
		m.notify(ctx, app, notify.KindPermanentlyFailed, detail)
	}
	return nil
}

func (m *Machine) notify(ctx context.Context, app *model.Application, kind notify.Kind, detail string) {
	err := m.notifier.Notify(ctx, app.OwnerID, notify.Event{
		Kind:          kind,
		OwnerID:       app.OwnerID,
		ApplicationID: app.ID,
		JobRef:        app.JobRef,
		Detail:        detail,
		At:            m.now(),
	})
	if err != nil {
		observability.IncError(observability.ErrorNotify, "lifecycle")
		slog.Warn("notify failed", "owner", app.OwnerID, "kind", kind, "error", err)
	}
}

// ApplicationsDue lists ready applications whose submission time has come,
// earliest first.
func (m *Machine) ApplicationsDue(ctx context.Context, now time.Time) ([]model.Application, error) {
	return m.store.ApplicationsDue(ctx, now, dueLimit)
}

func (m *Machine) ListByOwner(ctx context.Context, owner int64, limit, offset int) ([]model.Application, error) {
	return m.store.ListApplications(ctx, owner, limit, offset)
}

// RecordEvent stores an interview milestone for a submitted application and
// tells the owner about it.
func (m *Machine) RecordEvent(ctx context.Context, id uuid.UUID, kind notify.Kind, note string) error {
	if !kind.IsInterview() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	app, err := m.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if app.State != model.StateSubmitted {
		return fmt.Errorf("%w: %s is %s", ErrNotSubmitted, id, app.State)
	}
	if err := m.store.AppendEvent(ctx, model.ApplicationEvent{
		ApplicationID: id,
		Kind:          string(kind),
		Note:          note,
		At:            m.now(),
	}); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	m.notify(ctx, app, kind, note)
	return nil
}

// Prepare validates queued applications and makes them ready for the
// submission worker. An application whose job has closed or disappeared
// fails validation and goes through the retry policy. A store error stops
// the pass without touching the application. Applications left in
// failed by an interrupted Fail are settled here too.
func (m *Machine) Prepare(ctx context.Context) (int, error) {
	stuck, err := m.store.ListApplicationsInState(ctx, model.StateFailed, prepareBatch)
	if err != nil {
		return 0, fmt.Errorf("list failed: %w", err)
	}
	for i := range stuck {
		if err := m.settle(ctx, &stuck[i]); err != nil && !errors.Is(err, ErrConflict) {
			return 0, err
		}
	}

	queued, err := m.store.ListApplicationsInState(ctx, model.StateQueued, prepareBatch)
	if err != nil {
		return 0, fmt.Errorf("list queued: %w", err)
	}
	ready := 0
	for i := range queued {
		app := &queued[i]
		reason, err := m.validate(ctx, app)
		if err != nil {
			return ready, err
		}
		if err := m.move(ctx, app, model.StateProcessing, model.Change{At: m.now()}); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return ready, err
		}
		if reason != "" {
			if _, err := m.Fail(ctx, app.ID, reason); err != nil && !errors.Is(err, ErrConflict) {
				return ready, err
			}
			continue
		}
		if err := m.move(ctx, app, model.StateReady, model.Change{At: m.now()}); err != nil {
			if errors.Is(err, ErrConflict) {
				continue
			}
			return ready, err
		}
		ready++
	}
	return ready, nil
}

// validate returns why app cannot be submitted, or "". Store errors are
// returned as errors and leave the application queued.
func (m *Machine) validate(ctx context.Context, app *model.Application) (string, error) {
	job, err := m.store.GetJob(ctx, app.JobRef)
	if errors.Is(err, store.ErrNotFound) {
		return "job no longer listed", nil
	}
	if err != nil {
		return "", fmt.Errorf("get job %s: %w", app.JobRef, err)
	}
	if !job.Active || job.DaysUntilClosing(m.now()) < 0 {
		return "job has closed", nil
	}
	return "", nil
}

// RunPreparer calls Prepare every interval until ctx is done.
func (m *Machine) RunPreparer(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := m.Prepare(ctx); err != nil {
			slog.Error("prepare applications failed", "error", err)
		} else if n > 0 {
			slog.Info("applications ready", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
