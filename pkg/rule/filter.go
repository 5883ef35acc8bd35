package rule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tokensift/tokensift/pkg/types"
)

// FilterConfig selects rules by name for inclusion or exclusion.
type FilterConfig struct {
	Include []string // regex patterns; when non-empty, only matching rule names are kept
	Exclude []string // regex patterns; matching rule names are dropped
}

func (c FilterConfig) empty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0
}

// ParsePatterns splits a comma-separated string into individual patterns,
// trimming whitespace and dropping empty segments.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// FilterCollection applies include then exclude patterns to every rule name
// in the collection, producing a new collection. Files left with no rules
// drop out entirely, so the at-least-one-rule-per-file invariant holds on
// the result. The input collection is not modified. An invalid pattern is
// an error.
func FilterCollection(coll *types.RuleCollection, config FilterConfig) (*types.RuleCollection, error) {
	if coll == nil || config.empty() {
		return coll, nil
	}

	include, err := compileFilterPatterns(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileFilterPatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	out := &types.RuleCollection{}
	for _, f := range coll.Files {
		kept := make([]*types.PatternRule, 0, len(f.Rules))
		for _, r := range f.Rules {
			if len(include) > 0 && !matchesAny(r.Name, include) {
				continue
			}
			if matchesAny(r.Name, exclude) {
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			continue
		}
		out.Files = append(out.Files, &types.RuleFile{Origin: f.Origin, Rules: kept})
		out.TotalRules += len(kept)
	}
	return out, nil
}

func compileFilterPatterns(patterns []string) ([]*regexp.Regexp, error) {
	var regexes []*regexp.Regexp
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func matchesAny(name string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
