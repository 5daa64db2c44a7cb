package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JakeFAU/lead-enricher/internal/enrich"
)

func TestNewCompletedEvent(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	at := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	rec := Record{
		ID:      id,
		Request: enrich.Request{Name: "Acme"},
		Result: enrich.Result{
			Domain:     "acme.example",
			Emails:     []string{"a@acme.example", "b@acme.example"},
			Sources:    []string{"https://acme.example"},
			ResolvedBy: enrich.StageTLD,
		},
		CreatedAt: at,
	}

	want := CompletedEvent{
		ID:          id,
		Domain:      "acme.example",
		ResolvedBy:  enrich.StageTLD,
		Emails:      2,
		Sources:     1,
		CompletedAt: at,
	}
	if diff := cmp.Diff(want, NewCompletedEvent(rec)); diff != "" {
		t.Fatalf("NewCompletedEvent() mismatch (-want +got):\n%s", diff)
	}
}
