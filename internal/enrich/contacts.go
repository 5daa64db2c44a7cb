package enrich

import (
	"regexp"
	"strings"
)

const minPhoneDigits = 8

var (
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s()]{6,}\d`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// orderedSet keeps the first value seen for each key in insertion order.
type orderedSet struct {
	keys   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{keys: make(map[string]struct{})}
}

func (s *orderedSet) add(key, value string) bool {
	if key == "" {
		return false
	}
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	s.values = append(s.values, value)
	return true
}

func (s *orderedSet) slice() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

func (s *orderedSet) len() int {
	return len(s.values)
}

// ContactSet accumulates deduplicated emails and phone numbers.
// Emails are compared case-insensitively but keep the casing first seen.
type ContactSet struct {
	emails *orderedSet
	phones *orderedSet
}

// NewContactSet returns an empty ContactSet.
func NewContactSet() *ContactSet {
	return &ContactSet{emails: newOrderedSet(), phones: newOrderedSet()}
}

// AddEmail records an email address.
func (c *ContactSet) AddEmail(email string) bool {
	email = strings.TrimSpace(email)
	return c.emails.add(strings.ToLower(email), email)
}

// AddPhone records a phone number after collapsing whitespace.
func (c *ContactSet) AddPhone(phone string) bool {
	phone = normalizePhone(phone)
	return c.phones.add(phone, phone)
}

// Merge folds other into c.
func (c *ContactSet) Merge(other *ContactSet) {
	if other == nil {
		return
	}
	for _, e := range other.emails.values {
		c.AddEmail(e)
	}
	for _, p := range other.phones.values {
		c.AddPhone(p)
	}
}

// Emails returns the collected emails in discovery order.
func (c *ContactSet) Emails() []string {
	return c.emails.slice()
}

// Phones returns the collected phone numbers in discovery order.
func (c *ContactSet) Phones() []string {
	return c.phones.slice()
}

// Empty reports whether nothing has been collected.
func (c *ContactSet) Empty() bool {
	return c.emails.len() == 0 && c.phones.len() == 0
}

// ExtractContacts scans text for email addresses and phone-like runs of digits.
// The phone pattern favors recall, so dates and IDs with enough digits will match too.
func ExtractContacts(text string) *ContactSet {
	set := NewContactSet()
	if text == "" {
		return set
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		set.AddEmail(m)
	}
	for _, m := range phonePattern.FindAllString(text, -1) {
		if countDigits(m) < minPhoneDigits {
			continue
		}
		set.AddPhone(m)
	}
	return set
}

func normalizePhone(raw string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))
}

func normalizeWhitespace(raw string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
