package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/lead-enricher/internal/config"
	"github.com/JakeFAU/lead-enricher/internal/enrich"
	"github.com/JakeFAU/lead-enricher/internal/metrics"
	"github.com/JakeFAU/lead-enricher/internal/store"
)

// requestGrace is added on top of the enrichment budget before the HTTP layer gives up.
const requestGrace = 5 * time.Second

// Enricher is the slice of the enrichment pipeline the API depends on.
type Enricher interface {
	Enrich(ctx context.Context, req enrich.Request) (enrich.Result, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Server wires HTTP handlers to the enricher and stores.
type Server struct {
	router    chi.Router
	enricher  Enricher
	results   store.ResultStore
	publisher store.Publisher
	cfg       config.Config
	logger    *zap.Logger
	inflight  singleflight.Group
	newID     func() uuid.UUID
	now       func() time.Time
}

// NewServer constructs a Server with middleware and routes. A nil publisher disables events.
func NewServer(
	enricher Enricher,
	results store.ResultStore,
	publisher store.Publisher,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		enricher:  enricher,
		results:   results,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		newID:     uuid.New,
		now:       func() time.Time { return time.Now().UTC() },
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware(logger))
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Use(timeoutMiddleware(s.budget() + requestGrace))
		r.Post("/enrich", s.enrich)
		r.Get("/enrichments/{id}", s.getEnrichment)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.results.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
