package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

// ErrCycleRunning is returned by RunCycle while another cycle is in flight.
var ErrCycleRunning = errors.New("crawl cycle already running")

// ProfileSource lists the stored search profiles.
type ProfileSource interface {
	ListProfiles(ctx context.Context) ([]model.SearchProfile, error)
}

// Runner runs one crawl session. *Session is the production implementation.
type Runner interface {
	Run(ctx context.Context, profile model.SearchProfile) (Summary, error)
}

// CycleReport describes one supervisor cycle.
type CycleReport struct {
	Profiles  int       `json:"profiles"`
	Skipped   int       `json:"skipped"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Summaries []Summary `json:"summaries"`
}

// Supervisor fans sessions out over runnable profiles on a fixed interval.
type Supervisor struct {
	cron        *cron.Cron
	schedule    string
	profiles    ProfileSource
	runner      Runner
	concurrency int
	running     atomic.Bool
}

func NewSupervisor(profiles ProfileSource, runner Runner, interval time.Duration, concurrency int) *Supervisor {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Supervisor{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		schedule:    fmt.Sprintf("@every %s", interval),
		profiles:    profiles,
		runner:      runner,
		concurrency: concurrency,
	}
}

// Start registers the cycle and starts the scheduler. One cycle also runs
// immediately so nothing waits for the first tick.
func (s *Supervisor) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runScheduled(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	slog.Info("crawl supervisor started", "schedule", s.schedule, "concurrency", s.concurrency)

	go s.runScheduled(ctx)
	return nil
}

// Stop halts the scheduler and waits for a running cycle to return.
func (s *Supervisor) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("crawl supervisor stopped")
}

func (s *Supervisor) runScheduled(ctx context.Context) {
	if _, err := s.RunCycle(ctx); err != nil {
		if errors.Is(err, ErrCycleRunning) {
			slog.Info("crawl cycle skipped, previous cycle still running")
			return
		}
		slog.Error("crawl cycle failed", "error", err)
	}
}

// RunCycle loads profiles and runs a session for each runnable one, at most
// concurrency at a time. A failed session is logged and does not affect the
// others.
func (s *Supervisor) RunCycle(ctx context.Context) (CycleReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return CycleReport{}, ErrCycleRunning
	}
	defer s.running.Store(false)

	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("list profiles: %w", err)
	}

	report := CycleReport{Profiles: len(profiles)}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, p := range profiles {
		if !p.Runnable() {
			report.Skipped++
			continue
		}
		g.Go(func() error {
			sum, err := s.runner.Run(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			report.Summaries = append(report.Summaries, sum)
			if err != nil {
				report.Failed++
				slog.Error("crawl session failed", "owner", p.OwnerID, "error", err)
				return nil
			}
			report.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("crawl cycle complete",
		"profiles", report.Profiles,
		"skipped", report.Skipped,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report, nil
}

// Running reports whether a cycle is in flight.
func (s *Supervisor) Running() bool {
	return s.running.Load()
}
