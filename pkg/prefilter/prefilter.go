package prefilter

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/tokensift/tokensift/pkg/types"
)

// Prefilter narrows the rules worth evaluating for a token by scanning the
// token once with Aho-Corasick over every declared rule keyword. A rule
// that declares keywords promises each of its matches contains at least one
// of them; rules without keywords are always eligible, so the plain
// name+regex rule format never loses a match to prefiltering.
type Prefilter struct {
	matcher      *ahocorasick.Matcher
	keywords     []string // keyword at each matcher index
	keywordRules map[string][]*types.PatternRule
}

// New builds a prefilter over every rule in the collection.
func New(coll *types.RuleCollection) *Prefilter {
	pf := &Prefilter{
		keywordRules: make(map[string][]*types.PatternRule),
	}

	seen := make(map[string]bool)
	for _, file := range coll.Files {
		for _, rule := range file.Rules {
			for _, keyword := range rule.Keywords {
				if !seen[keyword] {
					seen[keyword] = true
					pf.keywords = append(pf.keywords, keyword)
				}
				pf.keywordRules[keyword] = append(pf.keywordRules[keyword], rule)
			}
		}
	}

	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}
	return pf
}

// ForToken scans the token once and returns its eligibility set.
// Eligibility is a pure function of the token, so two evaluations of the
// same token see the same rule set.
func (pf *Prefilter) ForToken(token string) Eligibility {
	if pf.matcher == nil {
		return Eligibility{}
	}

	hits := pf.matcher.Match([]byte(token))
	if len(hits) == 0 {
		return Eligibility{}
	}

	set := make(map[*types.PatternRule]bool)
	for _, hit := range hits {
		for _, rule := range pf.keywordRules[pf.keywords[hit]] {
			set[rule] = true
		}
	}
	return Eligibility{hits: set}
}

// Eligibility reports per-rule eligibility for one token. The zero value
// admits exactly the rules without keywords.
type Eligibility struct {
	hits map[*types.PatternRule]bool
}

// Eligible reports whether the rule should be evaluated against the token
// this set was built for.
func (e Eligibility) Eligible(r *types.PatternRule) bool {
	if len(r.Keywords) == 0 {
		return true
	}
	return e.hits[r]
}
