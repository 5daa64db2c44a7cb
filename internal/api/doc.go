// Package api hosts the HTTP server, middleware, and REST handlers for the
// enrichment service. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/enrich to enrich a company from a domain and/or name.
//   - GET /v1/enrichments/{id} to read back a stored enrichment.
package api
