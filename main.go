// Command lead-enricher resolves company websites and reports contacts and
// likely business problems.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes POST /v1/enrich, GET /v1/enrichments/{id}, health probes and
//     /metrics. Concurrent identical requests share one pipeline run.
//   - Pipeline: internal/enrich resolves a homepage through four fallback stages (direct, TLD guess, search,
//     contact search), follows capped contact and careers links, extracts emails and phones, and infers
//     problems from an embedded keyword rule table.
//   - Fetching: the Colly fetcher reduces every failure to an absent page; search queries are throttled per
//     host by internal/policy/ratelimit.
//   - Persistence & fanout: results go to Postgres when db.dsn is set (memory otherwise) and an
//     enrichment.completed event is published to Pub/Sub when pubsub.topic_name is set.
//   - Configuration & plumbing: Viper reads a config file plus ENRICHER_* env vars; zap logs; Prometheus
//     metrics.
//
// Run locally:
//
//	lead-enricher serve --config config.yaml
//	lead-enricher enrich --domain acme.com
package main

import "github.com/JakeFAU/lead-enricher/cmd"

func main() {
	cmd.Execute()
}
