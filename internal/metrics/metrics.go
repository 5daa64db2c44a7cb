// Package metrics exposes Prometheus collectors for the enrichment service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeFound  = "found"
	outcomeAbsent = "absent"
)

var (
	fetchesTotal                 *prometheus.CounterVec
	fetchDurationSeconds         prometheus.Histogram
	stagesTotal                  *prometheus.CounterVec
	searchQueriesTotal           *prometheus.CounterVec
	enrichmentsTotal             *prometheus.CounterVec
	enrichmentDurationSeconds    prometheus.Histogram
	contactsFoundTotal           *prometheus.CounterVec
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec
	searchRateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_fetches_total",
				Help: "Total number of page fetches, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_fetch_duration_seconds",
				Help:    "Histogram of single page fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
		)

		stagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_resolution_stages_total",
				Help: "Domain resolution stage attempts, labeled by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		searchQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_search_queries_total",
				Help: "Search engine queries, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		enrichmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_enrichments_total",
				Help: "Completed enrichments, labeled by the stage that resolved the company site.",
			},
			[]string{"resolved_by"},
		)

		enrichmentDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_enrichment_duration_seconds",
				Help:    "Histogram of end-to-end enrichment latencies.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
		)

		contactsFoundTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_contacts_found_total",
				Help: "Contacts extracted across enrichments, labeled by kind.",
			},
			[]string{"kind"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)

		searchRateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enricher_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch records one page fetch.
func ObserveFetch(found bool, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(outcome(found)).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveStage records one resolution stage attempt.
func ObserveStage(stage string, found bool) {
	Init()
	stagesTotal.WithLabelValues(stage, outcome(found)).Inc()
}

// ObserveSearch records one search engine query.
func ObserveSearch(found bool) {
	Init()
	searchQueriesTotal.WithLabelValues(outcome(found)).Inc()
}

// ObserveEnrichment records a finished enrichment. An empty stage means nothing resolved.
func ObserveEnrichment(resolvedBy string, emails, phones int, duration time.Duration) {
	Init()
	if resolvedBy == "" {
		resolvedBy = "none"
	}
	enrichmentsTotal.WithLabelValues(resolvedBy).Inc()
	enrichmentDurationSeconds.Observe(duration.Seconds())
	if emails > 0 {
		contactsFoundTotal.WithLabelValues("email").Add(float64(emails))
	}
	if phones > 0 {
		contactsFoundTotal.WithLabelValues("phone").Add(float64(phones))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	searchRateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

func outcome(found bool) string {
	if found {
		return outcomeFound
	}
	return outcomeAbsent
}
