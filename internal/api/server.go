package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/crawl"
	"github.com/baxromumarov/job-autopilot/internal/lifecycle"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/notify"
	"github.com/baxromumarov/job-autopilot/internal/store"
)

// Applications is the lifecycle surface the API exposes.
type Applications interface {
	Transition(ctx context.Context, id uuid.UUID, to model.State, reason string) (*model.Application, error)
	Cancel(ctx context.Context, id uuid.UUID) (*model.Application, error)
	ApplicationsDue(ctx context.Context, now time.Time) ([]model.Application, error)
	ListByOwner(ctx context.Context, owner int64, limit, offset int) ([]model.Application, error)
	RecordEvent(ctx context.Context, id uuid.UUID, kind notify.Kind, note string) error
}

// Store is the profile and job persistence the API reads and writes.
type Store interface {
	ListJobs(ctx context.Context, limit, offset int) ([]model.JobRecord, error)
	GetProfile(ctx context.Context, owner int64) (*model.SearchProfile, error)
	UpsertProfile(ctx context.Context, p model.SearchProfile) error
	SetPaused(ctx context.Context, owner int64, paused bool) error
}

// CrawlTrigger starts supervisor cycles on demand.
type CrawlTrigger interface {
	RunCycle(ctx context.Context) (crawl.CycleReport, error)
	Running() bool
}

type Server struct {
	router *chi.Mux
	apps   Applications
	store  Store
	crawl  CrawlTrigger
	now    func() time.Time
}

func NewServer(apps Applications, store Store, trigger CrawlTrigger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		apps:   apps,
		store:  store,
		crawl:  trigger,
		now:    time.Now,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/jobs", s.handleListJobs)

	s.router.Get("/applications/due", s.handleApplicationsDue)
	s.router.Post("/applications/{id}/transition", s.handleTransition)
	s.router.Post("/applications/{id}/cancel", s.handleCancel)
	s.router.Post("/applications/{id}/events", s.handleEvent)
	s.router.Get("/owners/{owner}/applications", s.handleOwnerApplications)

	s.router.Route("/profiles/{owner}", func(r chi.Router) {
		r.Get("/", s.handleGetProfile)
		r.Put("/", s.handlePutProfile)
		r.Post("/pause", s.handlePause(true))
		r.Post("/resume", s.handlePause(false))
	})

	s.router.Post("/crawl/run", s.handleRunCrawl)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrConflict),
		errors.Is(err, model.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrNotSubmitted):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lifecycle.ErrUnknownEvent), errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
