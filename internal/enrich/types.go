// Package enrich defines core types shared across the enrichment pipeline.
package enrich

import (
	"context"
	"errors"
)

// ErrMissingInput is returned when neither a domain nor a company name is supplied.
var ErrMissingInput = errors.New("provide domain or name")

// Request is the sparse company record handed to the Enricher.
type Request struct {
	Domain string `json:"domain" validate:"required_without=Name"`
	Name   string `json:"name"`
}

// FetchOutcome is the result of a single page fetch. Found=false means absent.
type FetchOutcome struct {
	Found      bool
	Content    string
	SourceURL  string
	FinalURL   string
	StatusCode int
}

// Absent is the zero outcome returned for any failed fetch.
var Absent = FetchOutcome{}

// BaseURL returns the URL links on the page should be resolved against.
func (o FetchOutcome) BaseURL() string {
	if o.FinalURL != "" {
		return o.FinalURL
	}
	return o.SourceURL
}

// Fetcher retrieves a single URL. Implementations never return errors; failures are absent outcomes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) FetchOutcome
}

// Topic classifies a candidate link.
type Topic string

// Supported link topics.
const (
	TopicContact Topic = "contact"
	TopicCareer  Topic = "career"
)

// CandidateLink is an absolute URL discovered on a page plus the topic it matched.
type CandidateLink struct {
	URL   string
	Topic Topic
}

// Stage names a step of the domain resolution fallback chain.
type Stage string

// Resolution stages in the order they are attempted.
const (
	StageNone          Stage = ""
	StageDirect        Stage = "direct"
	StageTLD           Stage = "tld"
	StageSearch        Stage = "search"
	StageSearchContact Stage = "search_contact"
)

// Result is the enriched company record.
type Result struct {
	Domain           string   `json:"domain"`
	Emails           []string `json:"emails"`
	Phones           []string `json:"phones"`
	Sources          []string `json:"sources"`
	InferredProblems []string `json:"inferredProblems"`
	ProblemSummary   string   `json:"problemSummary"`
	ResolvedBy       Stage    `json:"resolvedBy,omitempty"`
}
