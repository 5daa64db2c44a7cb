package enrich

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/metrics"
)

// DefaultTLDs are tried, in order, when guessing a domain from a company name.
var DefaultTLDs = []string{".com", ".in", ".co.in", ".net", ".org", ".io"}

const maxNameTokens = 3

var nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\s]`)

// Resolution is the outcome of the domain resolution strategy.
type Resolution struct {
	Page  FetchOutcome
	Stage Stage
}

// Found reports whether any stage produced a page.
func (r Resolution) Found() bool {
	return r.Page.Found
}

// stage is one step of the fallback chain.
type stage struct {
	name Stage
	run  func(ctx context.Context, domain, name string) FetchOutcome
}

// ResolverConfig tunes the resolution strategy.
type ResolverConfig struct {
	TLDs []string
}

// Resolver finds a usable homepage for a company by walking an ordered list of stages.
type Resolver struct {
	fetcher Fetcher
	search  *SearchEngine
	tlds    []string
	stages  []stage
	logger  *zap.Logger
}

// NewResolver wires the four resolution stages. A nil search engine disables the search stages.
func NewResolver(fetcher Fetcher, search *SearchEngine, cfg ResolverConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	tlds := cfg.TLDs
	if len(tlds) == 0 {
		tlds = DefaultTLDs
	}
	r := &Resolver{
		fetcher: fetcher,
		search:  search,
		tlds:    append([]string(nil), tlds...),
		logger:  logger,
	}
	r.stages = []stage{
		{name: StageDirect, run: r.direct},
		{name: StageTLD, run: r.guessFromName},
		{name: StageSearch, run: r.searchWith("company")},
		{name: StageSearchContact, run: r.searchWith("contact")},
	}
	return r
}

// Resolve runs each stage until one yields a page. Exhausting every stage is not an error.
func (r *Resolver) Resolve(ctx context.Context, domain, name string) Resolution {
	for _, st := range r.stages {
		if ctx.Err() != nil {
			return Resolution{}
		}
		page := st.run(ctx, domain, name)
		metrics.ObserveStage(string(st.name), page.Found)
		if page.Found {
			r.logger.Debug("domain resolved",
				zap.String("stage", string(st.name)),
				zap.String("url", page.SourceURL),
			)
			return Resolution{Page: page, Stage: st.name}
		}
		r.logger.Debug("resolution stage exhausted", zap.String("stage", string(st.name)))
	}
	return Resolution{}
}

func (r *Resolver) direct(ctx context.Context, domain, _ string) FetchOutcome {
	if domain == "" {
		return Absent
	}
	return r.firstFound(ctx, URLVariants(domain))
}

func (r *Resolver) guessFromName(ctx context.Context, _, name string) FetchOutcome {
	candidate := DomainCandidate(name)
	if candidate == "" {
		return Absent
	}
	for _, tld := range r.tlds {
		if page := r.firstFound(ctx, URLVariants(candidate+tld)); page.Found {
			return page
		}
		if ctx.Err() != nil {
			return Absent
		}
	}
	return Absent
}

func (r *Resolver) searchWith(suffix string) func(context.Context, string, string) FetchOutcome {
	return func(ctx context.Context, _, name string) FetchOutcome {
		name = strings.TrimSpace(name)
		if r.search == nil || name == "" {
			return Absent
		}
		link, ok := r.search.FirstResult(ctx, name+" "+suffix)
		if !ok {
			return Absent
		}
		return r.fetcher.Fetch(ctx, link)
	}
}

func (r *Resolver) firstFound(ctx context.Context, urls []string) FetchOutcome {
	for _, u := range urls {
		if ctx.Err() != nil {
			return Absent
		}
		if page := r.fetcher.Fetch(ctx, u); page.Found {
			return page
		}
	}
	return Absent
}

// URLVariants returns the https/http and www-prefixed forms of domain.
func URLVariants(domain string) []string {
	variants := []string{"https://" + domain, "http://" + domain}
	if !strings.HasPrefix(domain, "www.") {
		variants = append(variants, "https://www."+domain, "http://www."+domain)
	}
	return variants
}

// DomainCandidate derives a bare domain label from a company name:
// lower-cased, punctuation stripped, first three words joined.
func DomainCandidate(name string) string {
	cleaned := nonAlnumSpace.ReplaceAllString(strings.ToLower(name), "")
	tokens := strings.Fields(cleaned)
	if len(tokens) > maxNameTokens {
		tokens = tokens[:maxNameTokens]
	}
	return strings.Join(tokens, "")
}

// NormalizeDomain reduces user input such as "https://Example.com/" to a bare lower-case host.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}
