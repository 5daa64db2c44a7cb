package enrich

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Default link caps per topic.
const (
	DefaultContactLinkCap = 8
	DefaultCareerLinkCap  = 6
)

// vocabulary lists the substrings that classify an anchor under a topic.
type vocabulary struct {
	href []string
	text []string
}

var topicVocabulary = map[Topic]vocabulary{
	TopicContact: {
		href: []string{"contact", "about", "team"},
		text: []string{"contact", "about", "team"},
	},
	TopicCareer: {
		href: []string{"career", "job", "vacancy"},
		text: []string{"career", "jobs", "join us"},
	},
}

// LinkClassifier finds contact and career links on a parsed page.
type LinkClassifier struct {
	caps map[Topic]int
}

// NewLinkClassifier builds a classifier; non-positive caps fall back to the defaults.
func NewLinkClassifier(contactCap, careerCap int) *LinkClassifier {
	if contactCap <= 0 {
		contactCap = DefaultContactLinkCap
	}
	if careerCap <= 0 {
		careerCap = DefaultCareerLinkCap
	}
	return &LinkClassifier{caps: map[Topic]int{
		TopicContact: contactCap,
		TopicCareer:  careerCap,
	}}
}

// FindLinks runs the default classifier.
func FindLinks(doc *goquery.Document, baseURL string, topic Topic) []CandidateLink {
	return NewLinkClassifier(0, 0).Find(doc, baseURL, topic)
}

// Find returns absolute, deduplicated links whose href or text matches the topic vocabulary,
// in page order and truncated to the topic cap.
func (c *LinkClassifier) Find(doc *goquery.Document, baseURL string, topic Topic) []CandidateLink {
	vocab, ok := topicVocabulary[topic]
	if !ok || doc == nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil
	}
	limit := c.caps[topic]

	seen := make(map[string]struct{})
	var links []CandidateLink
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		text := strings.ToLower(s.Text())
		if !containsAny(strings.ToLower(href), vocab.href) && !containsAny(text, vocab.text) {
			return true
		}
		resolved, err := resolveHref(base, href)
		if err != nil {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		links = append(links, CandidateLink{URL: resolved, Topic: topic})
		return len(links) < limit
	})
	return links
}

// resolveHref turns an anchor href into an absolute http(s) URL without a fragment.
func resolveHref(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	var target *url.URL
	switch {
	case strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//"):
		u, err := url.Parse(origin(base) + href)
		if err != nil {
			return "", fmt.Errorf("parse rooted href: %w", err)
		}
		target = u
	default:
		ref, err := url.Parse(href)
		if err != nil {
			return "", fmt.Errorf("parse href: %w", err)
		}
		if ref.IsAbs() {
			target = ref
		} else {
			target = base.ResolveReference(ref)
		}
	}
	switch strings.ToLower(target.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("unsupported scheme %q", target.Scheme)
	}
	if target.Host == "" {
		return "", fmt.Errorf("missing host in %q", href)
	}
	target.Fragment = ""
	target.RawFragment = ""
	if target.Path == "" {
		target.Path = "/"
	}
	return target.String(), nil
}

func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
