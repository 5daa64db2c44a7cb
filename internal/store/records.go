package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/lead-enricher/internal/enrich"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("enrichment record not found")

// TopicEnrichmentCompleted is the event name published after each successful enrichment.
const TopicEnrichmentCompleted = "enrichment.completed"

// Record is one persisted enrichment.
type Record struct {
	// ID is assigned by the API when the enrichment finishes.
	ID uuid.UUID `json:"id"`
	// Request holds the normalized input.
	Request enrich.Request `json:"request"`
	// Result is the enriched company record.
	Result enrich.Result `json:"result"`
	// CreatedAt is when the record was saved.
	CreatedAt time.Time `json:"createdAt"`
	// Duration is how long the enrichment took.
	Duration time.Duration `json:"-"`
}

// ResultStore persists enrichment records.
type ResultStore interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
}

// Publisher emits enrichment events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// CompletedEvent is the payload published on TopicEnrichmentCompleted.
type CompletedEvent struct {
	ID          uuid.UUID    `json:"id"`
	Domain      string       `json:"domain"`
	ResolvedBy  enrich.Stage `json:"resolvedBy"`
	Emails      int          `json:"emails"`
	Phones      int          `json:"phones"`
	Sources     int          `json:"sources"`
	CompletedAt time.Time    `json:"completedAt"`
}

// NewCompletedEvent summarizes rec for publication.
func NewCompletedEvent(rec Record) CompletedEvent {
	return CompletedEvent{
		ID:          rec.ID,
		Domain:      rec.Result.Domain,
		ResolvedBy:  rec.Result.ResolvedBy,
		Emails:      len(rec.Result.Emails),
		Phones:      len(rec.Result.Phones),
		Sources:     len(rec.Result.Sources),
		CompletedAt: rec.CreatedAt,
	}
}
