package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/lead-enricher/internal/metrics"
)

// Config tunes link discovery for an Enricher.
type Config struct {
	ContactLinkCap int
	CareerLinkCap  int
}

// Enricher drives resolution, link discovery, contact extraction and problem inference.
type Enricher struct {
	fetcher    Fetcher
	resolver   *Resolver
	classifier *LinkClassifier
	validate   *validator.Validate
	logger     *zap.Logger
}

// New constructs an Enricher.
func New(fetcher Fetcher, resolver *Resolver, cfg Config, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		fetcher:    fetcher,
		resolver:   resolver,
		classifier: NewLinkClassifier(cfg.ContactLinkCap, cfg.CareerLinkCap),
		validate:   validator.New(),
		logger:     logger,
	}
}

// Enrich turns a sparse company record into contacts, sources and problem inferences.
// It fails only when neither domain nor name is given, or when ctx ends mid-flight.
func (e *Enricher) Enrich(ctx context.Context, req Request) (Result, error) {
	req = Request{Domain: NormalizeDomain(req.Domain), Name: strings.TrimSpace(req.Name)}
	if err := e.validate.Struct(req); err != nil {
		return Result{}, ErrMissingInput
	}
	start := time.Now()
	logger := e.logger.With(zap.String("domain", req.Domain), zap.String("name", req.Name))

	resolution := e.resolver.Resolve(ctx, req.Domain, req.Name)
	acc := newAccumulator()
	if resolution.Found() {
		primary := resolution.Page
		acc.attempt(primary.SourceURL)
		acc.attempt(primary.BaseURL())
		doc := acc.visit(primary)
		if doc != nil {
			for _, link := range e.discover(doc, primary.BaseURL()) {
				if ctx.Err() != nil {
					break
				}
				// A failed fetch is final for that URL, even when it is listed under both topics.
				if !acc.attempt(link.URL) {
					continue
				}
				page := e.fetcher.Fetch(ctx, link.URL)
				if !page.Found {
					logger.Debug("candidate link skipped", zap.String("url", link.URL), zap.String("topic", string(link.Topic)))
					continue
				}
				acc.visit(page)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("enrichment aborted: %w", err)
	}

	problems := InferProblems(normalizeWhitespace(acc.text.String()))
	result := Result{
		Domain:           resultDomain(req.Domain, resolution),
		Emails:           acc.contacts.Emails(),
		Phones:           acc.contacts.Phones(),
		Sources:          acc.sources.slice(),
		InferredProblems: problems,
		ProblemSummary:   SummarizeProblems(problems),
		ResolvedBy:       resolution.Stage,
	}
	metrics.ObserveEnrichment(string(resolution.Stage), len(result.Emails), len(result.Phones), time.Since(start))
	logger.Info("enrichment finished",
		zap.String("resolved_by", string(resolution.Stage)),
		zap.Int("sources", len(result.Sources)),
		zap.Int("emails", len(result.Emails)),
		zap.Int("phones", len(result.Phones)),
	)
	return result, nil
}

// IsInputError reports whether err is the missing input validation error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingInput)
}

func (e *Enricher) discover(doc *goquery.Document, base string) []CandidateLink {
	links := e.classifier.Find(doc, base, TopicContact)
	return append(links, e.classifier.Find(doc, base, TopicCareer)...)
}

// accumulator owns the per-call contact, source and text state.
type accumulator struct {
	contacts  *ContactSet
	sources   *orderedSet
	attempted map[string]struct{}
	text      strings.Builder
}

func newAccumulator() *accumulator {
	return &accumulator{
		contacts:  NewContactSet(),
		sources:   newOrderedSet(),
		attempted: make(map[string]struct{}),
	}
}

// attempt marks rawURL as fetched and reports whether it was new.
func (a *accumulator) attempt(rawURL string) bool {
	key := pageKey(rawURL)
	if _, ok := a.attempted[key]; ok {
		return false
	}
	a.attempted[key] = struct{}{}
	return true
}

// visit records a fetched page and returns its parsed document, or nil if it cannot be parsed.
// Contacts come from the raw markup so JSON-LD, meta tags and attributes are searched too.
func (a *accumulator) visit(page FetchOutcome) *goquery.Document {
	a.sources.add(pageKey(page.SourceURL), page.SourceURL)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Content))
	if err != nil {
		a.contacts.Merge(ExtractContacts(page.Content))
		return nil
	}
	a.contacts.Merge(ExtractContacts(page.Content + " " + contactHrefs(doc)))
	text := PageText(doc)
	a.text.WriteString(text)
	a.text.WriteString(" ")
	return doc
}

var skippedTextElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// PageText returns the visible text of the document body with node boundaries kept as spaces.
func PageText(doc *goquery.Document) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var b strings.Builder
	for _, n := range root.Nodes {
		collectText(&b, n)
	}
	return normalizeWhitespace(b.String())
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	case html.ElementNode:
		if _, skip := skippedTextElements[n.Data]; skip {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// contactHrefs gathers mailto: and tel: targets, which rarely appear in visible text.
func contactHrefs(doc *goquery.Document) string {
	var parts []string
	doc.Find(`a[href^="mailto:"], a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimPrefix(strings.TrimPrefix(href, "mailto:"), "tel:")
		if i := strings.Index(href, "?"); i >= 0 {
			href = href[:i]
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		parts = append(parts, href)
	})
	return strings.Join(parts, " ")
}

// pageKey identifies a page independent of its fragment and of a missing root path.
func pageKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	u.Host = strings.ToLower(u.Host)
	return u.String()
}

func resultDomain(requested string, resolution Resolution) string {
	if !resolution.Found() {
		return requested
	}
	u, err := url.Parse(resolution.Page.SourceURL)
	if err != nil || u.Hostname() == "" {
		return requested
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
