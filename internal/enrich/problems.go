package enrich

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	minInferenceTextLen = 30
	maxInferredProblems = 3
	noProblemsSummary   = "No clear business problems detected from public pages."
)

//go:embed rules.yaml
var rulesYAML []byte

// ProblemRule maps a keyword group to a human readable suggestion.
type ProblemRule struct {
	Keywords   []string `yaml:"keywords"`
	Suggestion string   `yaml:"suggestion"`
}

var (
	rulesOnce sync.Once
	rules     []ProblemRule
	rulesErr  error
)

// ProblemRules returns a copy of the process-wide rule table, loading it on first use.
func ProblemRules() ([]ProblemRule, error) {
	rulesOnce.Do(func() {
		rules, rulesErr = parseRules(rulesYAML)
	})
	if rulesErr != nil {
		return nil, rulesErr
	}
	out := make([]ProblemRule, len(rules))
	for i, r := range rules {
		out[i] = ProblemRule{
			Keywords:   append([]string(nil), r.Keywords...),
			Suggestion: r.Suggestion,
		}
	}
	return out, nil
}

func parseRules(data []byte) ([]ProblemRule, error) {
	var parsed []ProblemRule
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode problem rules: %w", err)
	}
	for i := range parsed {
		if strings.TrimSpace(parsed[i].Suggestion) == "" {
			return nil, fmt.Errorf("problem rule %d has no suggestion", i)
		}
		keywords := make([]string, 0, len(parsed[i].Keywords))
		for _, kw := range parsed[i].Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		parsed[i].Keywords = keywords
	}
	return parsed, nil
}

// InferProblems matches text against the rule table and returns at most three distinct
// suggestions in table order. Text shorter than 30 characters yields nothing.
func InferProblems(text string) []string {
	table, err := ProblemRules()
	if err != nil {
		return []string{}
	}
	return inferWith(table, text)
}

func inferWith(table []ProblemRule, text string) []string {
	out := []string{}
	if utf8.RuneCountInString(text) < minInferenceTextLen {
		return out
	}
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, rule := range table {
		if !containsAny(lower, rule.Keywords) {
			continue
		}
		if _, dup := seen[rule.Suggestion]; dup {
			continue
		}
		seen[rule.Suggestion] = struct{}{}
		out = append(out, rule.Suggestion)
		if len(out) == maxInferredProblems {
			break
		}
	}
	return out
}

// SummarizeProblems renders inferred problems as a single sentence.
func SummarizeProblems(problems []string) string {
	if len(problems) == 0 {
		return noProblemsSummary
	}
	return "Likely challenges: " + strings.Join(problems, "; ") + "."
}
