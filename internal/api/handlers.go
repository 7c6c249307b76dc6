package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/baxromumarov/job-autopilot/internal/crawl"
	"github.com/baxromumarov/job-autopilot/internal/model"
	"github.com/baxromumarov/job-autopilot/internal/notify"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20)

	jobs, err := s.store.ListJobs(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs: "+err.Error())
		return
	}
	if jobs == nil {
		jobs = []model.JobRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleApplicationsDue(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	if v := r.URL.Query().Get("now"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "now must be RFC3339")
			return
		}
		now = parsed
	}

	apps, err := s.apps.ApplicationsDue(r.Context(), now)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": apps,
		"now":   now,
	})
}

func (s *Server) handleOwnerApplications(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r, 20)

	apps, err := s.apps.ListByOwner(r.Context(), owner, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  apps,
		"limit":  limit,
		"offset": offset,
	})
}

type TransitionRequest struct {
	State string `json:"state"`
	Error string `json:"error"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationParam(w, r)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	to, err := model.ParseState(req.State)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	app, err := s.apps.Transition(r.Context(), id, to, req.Error)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationParam(w, r)
	if !ok {
		return
	}
	app, err := s.apps.Cancel(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

type EventRequest struct {
	Kind string `json:"kind"`
	Note string `json:"note"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := applicationParam(w, r)
	if !ok {
		return
	}
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.apps.RecordEvent(r.Context(), id, notify.Kind(req.Kind), req.Note); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"recorded": true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProfile(r.Context(), owner)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerParam(w, r)
	if !ok {
		return
	}
	var p model.SearchProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	p.OwnerID = owner
	if err := p.Validate(); err != nil {
		respondServiceError(w, err)
		return
	}
	if err := s.store.UpsertProfile(r.Context(), p); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := ownerParam(w, r)
		if !ok {
			return
		}
		if err := s.store.SetPaused(r.Context(), owner, paused); err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"paused": paused})
	}
}

func (s *Server) handleRunCrawl(w http.ResponseWriter, r *http.Request) {
	if s.crawl == nil {
		respondError(w, http.StatusServiceUnavailable, "crawler not configured")
		return
	}
	if s.crawl.Running() {
		respondError(w, http.StatusConflict, crawl.ErrCycleRunning.Error())
		return
	}

	go func() {
		if _, err := s.crawl.RunCycle(context.Background()); err != nil && !errors.Is(err, crawl.ErrCycleRunning) {
			slog.Error("manual crawl cycle failed", "error", err)
		}
	}()
	respondJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func ownerParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	owner, err := strconv.ParseInt(chi.URLParam(r, "owner"), 10, 64)
	if err != nil || owner <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid owner ID")
		return 0, false
	}
	return owner, true
}

func applicationParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid application ID")
		return uuid.Nil, false
	}
	return id, true
}
