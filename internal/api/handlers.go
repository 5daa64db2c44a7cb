package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/enrich"
	"github.com/JakeFAU/lead-enricher/internal/logging"
	"github.com/JakeFAU/lead-enricher/internal/store"
)

const (
	msgMissingInput  = "Provide domain or name"
	msgEnrichFailed  = "Enrichment failed"
	maxRequestBytes  = 64 << 10
	defaultBudget    = 5 * time.Minute
	publishTimeout   = 10 * time.Second
	persistenceGrace = 10 * time.Second
)

func (s *Server) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrich.Request
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	logger := logging.FromContext(r.Context(), s.logger)

	rec, shared, err := s.runEnrichment(r.Context(), req)
	if err != nil {
		if enrich.IsInputError(err) {
			writeError(w, http.StatusBadRequest, msgMissingInput)
			return
		}
		logger.Error("enrichment failed",
			zap.String("domain", req.Domain),
			zap.String("name", req.Name),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, msgEnrichFailed)
		return
	}
	logger.Info("enrichment served",
		zap.String("enrichment_id", rec.ID.String()),
		zap.String("domain", rec.Result.Domain),
		zap.Bool("shared", shared),
	)
	writeData(w, http.StatusOK, presentRecord(rec))
}

func (s *Server) getEnrichment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid enrichment id")
		return
	}
	if s.results == nil {
		writeError(w, http.StatusNotFound, "enrichment not found")
		return
	}
	rec, err := s.results.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "enrichment not found")
			return
		}
		logging.FromContext(r.Context(), s.logger).Error("load enrichment failed",
			zap.String("enrichment_id", id.String()),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to load enrichment")
		return
	}
	writeData(w, http.StatusOK, presentRecord(rec))
}

// runEnrichment collapses concurrent identical requests into one pipeline run.
// The run is detached from the caller so one client disconnecting does not fail the others.
func (s *Server) runEnrichment(ctx context.Context, req enrich.Request) (store.Record, bool, error) {
	req = enrich.Request{Domain: enrich.NormalizeDomain(req.Domain), Name: strings.TrimSpace(req.Name)}
	if req.Domain == "" && req.Name == "" {
		return store.Record{}, false, enrich.ErrMissingInput
	}
	logger := logging.FromContext(ctx, s.logger)
	key := req.Domain + "|" + strings.ToLower(req.Name)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.budget())
		defer cancel()
		return s.enrichAndRecord(runCtx, req, logger)
	})
	if err != nil {
		return store.Record{}, shared, err
	}
	rec, ok := v.(store.Record)
	if !ok {
		return store.Record{}, shared, fmt.Errorf("unexpected enrichment value %T", v)
	}
	return rec, shared, nil
}

func (s *Server) enrichAndRecord(ctx context.Context, req enrich.Request, logger *zap.Logger) (store.Record, error) {
	start := s.now()
	result, err := s.enricher.Enrich(ctx, req)
	if err != nil {
		return store.Record{}, fmt.Errorf("enrich: %w", err)
	}
	finished := s.now()
	rec := store.Record{
		ID:        s.newID(),
		Request:   req,
		Result:    result,
		CreatedAt: finished,
		Duration:  finished.Sub(start),
	}

	// Persistence and events get their own deadline, independent of the enrichment budget.
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistenceGrace)
	defer cancel()
	if s.results != nil {
		if err := s.results.Save(sideCtx, rec); err != nil {
			logger.Warn("persist enrichment failed", zap.String("enrichment_id", rec.ID.String()), zap.Error(err))
		}
	}
	s.publishCompleted(sideCtx, rec, logger)
	return rec, nil
}

func (s *Server) publishCompleted(ctx context.Context, rec store.Record, logger *zap.Logger) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	msgID, err := s.publisher.Publish(ctx, store.TopicEnrichmentCompleted, store.NewCompletedEvent(rec))
	if err != nil {
		logger.Warn("publish enrichment event failed", zap.String("enrichment_id", rec.ID.String()), zap.Error(err))
		return
	}
	logger.Debug("enrichment event published",
		zap.String("enrichment_id", rec.ID.String()),
		zap.String("message_id", msgID),
	)
}

func (s *Server) budget() time.Duration {
	if b := s.cfg.Budget(); b > 0 {
		return b
	}
	return defaultBudget
}
