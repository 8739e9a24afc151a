// Package server exposes the session and program state over HTTP: read-only
// snapshots for dashboards and the imperative start/pause/resume/cancel
// control surface.
package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/posecoach/internal/program"
	"github.com/claude/posecoach/internal/session"
	"github.com/claude/posecoach/internal/stream"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctrl   *session.Controller
	agg    *program.Aggregator
	src    stream.Source
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(ctrl *session.Controller, agg *program.Aggregator, src stream.Source, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		ctrl:   ctrl,
		agg:    agg,
		src:    src,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Session control (API key required)
	s.router.Route("/api/v1/session", func(r chi.Router) {
		r.Get("/", s.handleSessionState)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/start", s.handleStart)
			r.Post("/pause", s.handlePause)
			r.Post("/resume", s.handleResume)
			r.Post("/cancel", s.handleCancel)
		})
	})

	// Read-only program and stats endpoints
	s.router.Get("/api/v1/program", s.handleProgram)
	s.router.Get("/api/v1/program/{exercise}", s.handleExerciseProgram)
	s.router.Get("/api/v1/stats/weekly", s.handleWeeklyStats)
	s.router.Get("/api/v1/stream/metrics", s.handleStreamMetrics)
}
