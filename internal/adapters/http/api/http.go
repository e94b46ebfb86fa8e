// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/okian/framecount/internal/app"
	"github.com/okian/framecount/pkg/logger"
)

// Dependencies required by HTTP handlers. Each handler only sees the narrow
// interface it needs; the service satisfies all of them.
type Dependencies interface {
	StatsProvider
	ShotDependencies
	TierDependencies
	ImportDependencies
	ReportDependencies
}

// Server wires HTTP routes for the estimator API.
type Server struct {
	router chi.Router

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	shotsHandler   *ShotsHandler
	tiersHandler   *TiersHandler
	importsHandler *ImportsHandler
	reportHandler  *ReportHandler

	corsOrigins    []string
	maxUploadBytes int64
	logger         logger.Logger
}

// NewServer creates a new API server with all handlers and routes.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		corsOrigins:    []string{"*"},
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	v := newValidator()
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.shotsHandler = NewShotsHandler(deps, v)
	s.tiersHandler = NewTiersHandler(deps, v)
	s.importsHandler = NewImportsHandler(deps, s.maxUploadBytes)
	s.reportHandler = NewReportHandler(deps)

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the router so other adapters (docs) can attach routes.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	s.router.Use(MetricsMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.healthHandler.HandleHealth)
	s.router.Get("/metrics", s.healthHandler.HandleMetrics)
	s.router.Get("/stats", s.statsHandler.HandleStats)

	s.router.Route("/tiers", func(r chi.Router) {
		r.Get("/", s.tiersHandler.HandleList)
		r.Put("/", s.tiersHandler.HandleReplace)
		r.Delete("/{index}", s.tiersHandler.HandleRemove)
	})

	s.router.Route("/shots", func(r chi.Router) {
		r.Get("/", s.shotsHandler.HandleList)
		r.Post("/", s.shotsHandler.HandleAdd)
		r.Post("/batch", s.shotsHandler.HandleAddBatch)
		r.Get("/{id}", s.shotsHandler.HandleGet)
		r.Patch("/{id}", s.shotsHandler.HandleUpdate)
		r.Delete("/{id}", s.shotsHandler.HandleRemove)
	})

	s.router.Route("/imports", func(r chi.Router) {
		r.Post("/", s.importsHandler.HandleSubmit)
		r.Get("/{id}", s.importsHandler.HandleGet)
	})

	s.router.Get("/report", s.reportHandler.HandleReport)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service sentinel errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrDuplicateName):
		writeError(w, http.StatusConflict, "duplicate_name", err)
	case errors.Is(err, service.ErrTierInUse):
		writeError(w, http.StatusConflict, "tier_in_use", err)
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidFrames),
		errors.Is(err, service.ErrInvalidTiers),
		errors.Is(err, service.ErrEmptyImage):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrAnalyzerDisabled), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
