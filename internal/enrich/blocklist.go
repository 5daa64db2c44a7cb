package enrich

import "strings"

// hostBlocklist stores exact hosts and suffix wildcards ("*.example.com" or ".example.com").
type hostBlocklist struct {
	exact    map[string]struct{}
	suffixes []string
}

func newHostBlocklist(patterns []string) *hostBlocklist {
	b := &hostBlocklist{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		b.add(raw)
	}
	return b
}

func (b *hostBlocklist) add(raw string) {
	value := strings.TrimSpace(strings.ToLower(raw))
	switch {
	case value == "":
	case strings.HasPrefix(value, "*."):
		b.addSuffix(strings.TrimPrefix(value, "*."))
	case strings.HasPrefix(value, "."):
		b.addSuffix(strings.TrimPrefix(value, "."))
	default:
		b.exact[value] = struct{}{}
	}
}

func (b *hostBlocklist) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range b.suffixes {
		if existing == suffix {
			return
		}
	}
	b.suffixes = append(b.suffixes, suffix)
}

// IsBlocked reports whether host matches an exact entry or a suffix entry.
func (b *hostBlocklist) IsBlocked(host string) bool {
	if b == nil {
		return false
	}
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return false
	}
	if _, ok := b.exact[host]; ok {
		return true
	}
	for _, suffix := range b.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
