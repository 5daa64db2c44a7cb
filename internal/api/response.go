package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/store"
)

// notAvailable replaces empty contact lists in API responses.
const notAvailable = "not available"

type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type enrichmentView struct {
	ID               string    `json:"id"`
	Domain           string    `json:"domain"`
	Emails           []string  `json:"emails"`
	Phones           []string  `json:"phones"`
	Sources          []string  `json:"sources"`
	InferredProblems []string  `json:"inferredProblems"`
	ProblemSummary   string    `json:"problemSummary"`
	ResolvedBy       string    `json:"resolvedBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func presentRecord(rec store.Record) enrichmentView {
	return enrichmentView{
		ID:               rec.ID.String(),
		Domain:           rec.Result.Domain,
		Emails:           orNotAvailable(rec.Result.Emails),
		Phones:           orNotAvailable(rec.Result.Phones),
		Sources:          nonNil(rec.Result.Sources),
		InferredProblems: nonNil(rec.Result.InferredProblems),
		ProblemSummary:   rec.Result.ProblemSummary,
		ResolvedBy:       string(rec.Result.ResolvedBy),
		CreatedAt:        rec.CreatedAt,
	}
}

func orNotAvailable(values []string) []string {
	if len(values) == 0 {
		return []string{notAvailable}
	}
	return values
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{OK: false, Error: msg})
}
