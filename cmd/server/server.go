package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"power-market-lab/internal/domain"
	"power-market-lab/internal/observability"
	"power-market-lab/internal/pipeline"
	"power-market-lab/internal/push"
	"power-market-lab/internal/reporting"
)

// Server holds the latest day view and serves it over HTTP and websocket.
type Server struct {
	builder *pipeline.Builder
	hub     *push.Hub
	logger  *zap.Logger

	// State
	mu            sync.Mutex
	latest        *pipeline.DayView
	started       time.Time
	lastRefresh   time.Time
	lastError     string
	refreshing    bool
	refreshes     int
	refreshErrors int
}

// NewServer creates a server around builder and hub.
func NewServer(builder *pipeline.Builder, hub *push.Hub, logger *zap.Logger) *Server {
	return &Server{
		builder: builder,
		hub:     hub,
		logger:  logger,
		started: time.Now(),
	}
}

// Refresh rebuilds today's view, stores it and pushes it when its snapshot changed.
func (s *Server) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		s.logger.Info("refresh already running, skipping")
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	view, err := s.builder.BuildDay(ctx, s.builder.Today())

	s.mu.Lock()
	s.refreshing = false
	s.lastRefresh = time.Now()
	s.refreshes++
	if err != nil {
		s.refreshErrors++
		s.lastError = err.Error()
		s.mu.Unlock()
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("refresh failed", zap.Error(err))
		}
		return
	}
	s.latest = view
	s.lastError = ""
	s.mu.Unlock()

	pushed, err := s.hub.Publish(view.SnapshotID, view)
	if err != nil {
		s.logger.Warn("publish failed", zap.Error(err))
		return
	}
	if pushed {
		s.logger.Info("snapshot pushed",
			zap.String("snapshot_id", view.SnapshotID),
			zap.Int("clients", s.hub.Clients()))
	}
}

// Latest returns the most recent refreshed view, or nil.
func (s *Server) Latest() *pipeline.DayView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	mux.HandleFunc("/api/day", s.handleDay)
	mux.HandleFunc("/api/day/export", s.handleExport)
	mux.Handle("/ws", s.hub)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	Started       time.Time `json:"started"`
	LastRefresh   time.Time `json:"last_refresh,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	Refreshes     int       `json:"refreshes"`
	RefreshErrors int       `json:"refresh_errors"`
	Refreshing    bool      `json:"refreshing"`
	SnapshotID    string    `json:"snapshot_id,omitempty"`
	LiveHours     int       `json:"live_hours"`
	WSClients     int       `json:"ws_clients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		Started:       s.started,
		LastRefresh:   s.lastRefresh,
		LastError:     s.lastError,
		Refreshes:     s.refreshes,
		RefreshErrors: s.refreshErrors,
		Refreshing:    s.refreshing,
	}
	if s.latest != nil {
		resp.SnapshotID = s.latest.SnapshotID
		resp.LiveHours = s.latest.LiveHours
	}
	s.mu.Unlock()
	resp.WSClients = s.hub.Clients()

	writeJSON(w, http.StatusOK, resp)
}

// handleDay returns the day view for ?date=YYYY-MM-DD, defaulting to today.
// Today is served from the latest refresh when available.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	view, status, err := s.dayFor(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleExport renders the day view as ?format=csv|md|xlsx|pdf.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if _, ok := exportTypes[format]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}

	view, status, err := s.dayFor(r)
	if err != nil {
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	var body []byte
	switch format {
	case "csv":
		body = []byte(reporting.RenderCSV(view.Records))
	case "md":
		body = []byte(reporting.RenderMarkdown(view))
	case "xlsx":
		body, err = reporting.BuildXLSX(view)
	case "pdf":
		body, err = reporting.BuildPDF(view)
	}
	if err != nil {
		s.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	name := fmt.Sprintf("day_%s.%s", view.Date.Format(domain.DateLayout), format)
	w.Header().Set("Content-Type", exportTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

var exportTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"md":   "text/markdown; charset=utf-8",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pdf":  "application/pdf",
}

// dayFor resolves the requested date and returns its view with the HTTP
// status to use on error.
func (s *Server) dayFor(r *http.Request) (*pipeline.DayView, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	date := s.builder.Today()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := domain.ParseDate(q)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		date = parsed
	}

	if latest := s.Latest(); latest != nil && domain.SameDate(latest.Date, date) {
		return latest, http.StatusOK, nil
	}

	view, err := s.builder.BuildDay(r.Context(), date)
	if err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	return view, http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
