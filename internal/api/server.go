// Package api serves stored estimation runs over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/model"
	"github.com/bicep/income-sg/internal/store"
)

const maxPageSize = 10000

// Server exposes read-only run and estimate endpoints.
type Server struct {
	store store.Store
	log   *zap.Logger
}

// NewServer creates a Server backed by st.
func NewServer(st store.Store) *Server {
	return &Server{
		store: st,
		log:   zap.L().With(zap.String("component", "api")),
	}
}

// Routes builds the router. An empty origin list disables CORS.
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	r.Route("/v1/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Get("/estimates", s.listEstimates)
			r.Get("/regions", s.regionSummaries)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	runs, err := s.store.ListRuns(r.Context(), store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		Stage:  model.Stage(q.Get("stage")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listEstimates(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	recs, err := s.store.ListEstimates(r.Context(), id, store.EstimateFilter{
		Region: r.URL.Query().Get("region"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.IncomeRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) regionSummaries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	sums, err := s.store.RegionSummaries(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sums == nil {
		sums = []model.RegionSummary{}
	}
	writeJSON(w, http.StatusOK, sums)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// pageParams parses limit and offset. It writes a 400 and reports false on
// malformed values.
func pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	var err error
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return 0, 0, false
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return 0, 0, false
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, offset, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
