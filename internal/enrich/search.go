package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/lead-enricher/internal/metrics"
)

// DefaultSearchURL is the DuckDuckGo HTML endpoint, which serves results without JavaScript.
const DefaultSearchURL = "https://html.duckduckgo.com/html/"

// DefaultExcludedDomains are never accepted as a search result.
var DefaultExcludedDomains = []string{
	"*.duckduckgo.com",
	"*.facebook.com",
	"*.linkedin.com",
}

// Waiter throttles outbound requests per host.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// SearchConfig controls the search engine fallback.
type SearchConfig struct {
	BaseURL         string
	ExcludedDomains []string
}

// SearchEngine queries a public search engine and picks the first usable result link.
type SearchEngine struct {
	fetcher  Fetcher
	base     *url.URL
	limiter  Waiter
	excluded *hostBlocklist
	logger   *zap.Logger
}

// NewSearchEngine builds a SearchEngine. A nil limiter disables throttling.
func NewSearchEngine(fetcher Fetcher, cfg SearchConfig, limiter Waiter, logger *zap.Logger) (*SearchEngine, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("search engine requires a fetcher")
	}
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultSearchURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse search base url: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("search base url %q must be absolute", raw)
	}
	patterns := cfg.ExcludedDomains
	if patterns == nil {
		patterns = DefaultExcludedDomains
	}
	excluded := newHostBlocklist(patterns)
	excluded.add(base.Hostname())
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchEngine{
		fetcher:  fetcher,
		base:     base,
		limiter:  limiter,
		excluded: excluded,
		logger:   logger,
	}, nil
}

// QueryURL builds the results page URL for query.
func (s *SearchEngine) QueryURL(query string) string {
	u := *s.base
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String()
}

// FirstResult runs query and returns the first result link that is not excluded.
func (s *SearchEngine) FirstResult(ctx context.Context, query string) (string, bool) {
	target := s.QueryURL(query)
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, target); err != nil {
			s.logger.Debug("search throttle aborted", zap.String("query", query), zap.Error(err))
			return "", false
		}
	}
	page := s.fetcher.Fetch(ctx, target)
	metrics.ObserveSearch(page.Found)
	if !page.Found {
		s.logger.Debug("search query failed", zap.String("query", query))
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Content))
	if err != nil {
		s.logger.Debug("search results unparseable", zap.String("query", query), zap.Error(err))
		return "", false
	}
	link, ok := s.SelectResult(doc, page.BaseURL())
	if ok {
		s.logger.Debug("search result selected", zap.String("query", query), zap.String("url", link))
	}
	return link, ok
}

// SelectResult picks the first absolute http(s) anchor whose host is not excluded.
// DuckDuckGo redirect links (/l/?uddg=...) are unwrapped before the host check.
func (s *SearchEngine) SelectResult(doc *goquery.Document, pageURL string) (string, bool) {
	if doc == nil {
		return "", false
	}
	pageBase, err := url.Parse(pageURL)
	if err != nil || !pageBase.IsAbs() {
		pageBase = s.base
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		candidate, ok := s.candidate(pageBase, href)
		if !ok {
			return true
		}
		found = candidate
		return false
	})
	return found, found != ""
}

func (s *SearchEngine) candidate(pageBase *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	target := pageBase.ResolveReference(ref)
	if wrapped := target.Query().Get("uddg"); wrapped != "" && s.excluded.IsBlocked(target.Hostname()) {
		inner, err := url.Parse(wrapped)
		if err != nil {
			return "", false
		}
		target = inner
	} else if !ref.IsAbs() && !strings.HasPrefix(href, "//") {
		// Plain relative links point back into the search engine.
		return "", false
	}
	switch strings.ToLower(target.Scheme) {
	case "http", "https":
	default:
		return "", false
	}
	if target.Host == "" || s.excluded.IsBlocked(target.Hostname()) {
		return "", false
	}
	return target.String(), true
}
