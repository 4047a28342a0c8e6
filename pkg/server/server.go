package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/madushan-jaya-sri/trendpulse/internal/store"
	"github.com/madushan-jaya-sri/trendpulse/pkg/source"
	"github.com/madushan-jaya-sri/trendpulse/pkg/trend"
)

// Server provides the HTTP API.
type Server struct {
	store    store.Store
	engine   *trend.Engine
	sources  []source.Source
	defaults trend.Options
	port     int
	log      zerolog.Logger
}

// New creates a new HTTP server. defaults seeds strategy/window/limit for
// ranking requests that do not override them.
func New(s store.Store, engine *trend.Engine, sources []source.Source, defaults trend.Options, port int, log zerolog.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:    s,
		engine:   engine,
		sources:  sources,
		defaults: defaults,
		port:     port,
		log:      log.With().Str("component", "server").Logger(),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/trends", s.handleTrends)
	mux.HandleFunc("/api/v1/rank", s.handleRank)
	mux.HandleFunc("/api/v1/records", s.handleRecords)
	mux.HandleFunc("/api/v1/platforms", s.handlePlatforms)
	mux.HandleFunc("/api/v1/collect", s.handleCollect)

	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info().Str("addr", addr).Msg("server listening")
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTrends returns the most recent persisted ranking run.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	run, _, err := s.store.LatestRun(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}, "count": 0})
		return
	}

	rows, err := s.store.ListRunTrends(r.Context(), run.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run":   run,
		"data":  rows,
		"count": len(rows),
	})
}

// handleRank runs a fresh ranking over stored records and persists it.
// Query params strategy, window and limit override the configured defaults.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts := s.defaults

	if v := r.URL.Query().Get("strategy"); v != "" {
		strategy, err := trend.ParseStrategy(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		opts.Strategy = strategy
	}
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid window: %v", err)})
			return
		}
		opts.Window = d
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid limit: %v", err)})
			return
		}
		opts.Limit = n
	}

	records, err := s.store.ListRecords(r.Context(), store.ListOpts{
		Since: time.Now().Add(-24 * time.Hour),
		Limit: 1000,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if _, previous, err := s.store.LatestRun(r.Context()); err == nil {
		opts.Previous = previous
	}

	result, err := s.engine.Rank(records, opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	window := ""
	if opts.Window > 0 {
		window = opts.Window.String()
	}
	if err := s.store.SaveRun(r.Context(), window, result); err != nil {
		s.log.Error().Err(err).Msg("save run failed")
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts := store.ListOpts{Limit: 200}
	if p := r.URL.Query().Get("platform"); p != "" {
		opts.Platform = source.Platform(p)
	}
	if since := r.URL.Query().Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = t
		}
	}

	records, err := s.store.ListRecords(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"count": len(records),
	})
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.CountRecordsByPlatform(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type platformInfo struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
		Records int    `json:"records"`
	}

	var infos []platformInfo
	for _, src := range s.sources {
		infos = append(infos, platformInfo{
			Name:    string(src.Name()),
			Enabled: true,
			Records: counts[src.Name()],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	results := make(map[string]int)
	var errs []string

	for _, src := range s.sources {
		records, err := src.Collect(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		if err := s.store.UpsertRecords(ctx, records); err != nil {
			errs = append(errs, fmt.Sprintf("%s store: %v", src.Name(), err))
			continue
		}
		results[string(src.Name())] = len(records)
	}

	resp := map[string]any{"collected": results}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
