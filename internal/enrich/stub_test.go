package enrich

import (
	"context"
	"sync"
)

// stubFetcher serves canned pages by URL and records every request.
type stubFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	calls  []string
	before func(rawURL string)
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	if pages == nil {
		pages = map[string]string{}
	}
	return &stubFetcher{pages: pages}
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) FetchOutcome {
	if s.before != nil {
		s.before(rawURL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, rawURL)
	body, ok := s.pages[rawURL]
	if !ok {
		return Absent
	}
	return FetchOutcome{
		Found:      true,
		Content:    body,
		SourceURL:  rawURL,
		FinalURL:   rawURL,
		StatusCode: 200,
	}
}

func (s *stubFetcher) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
