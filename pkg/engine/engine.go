// Package engine evaluates tokens against a loaded rule collection.
package engine

import (
	"github.com/tokensift/tokensift/pkg/prefilter"
	"github.com/tokensift/tokensift/pkg/types"
)

// Engine evaluates tokens against the collection bound at construction.
// The collection is read-only after the bind, so a single engine can serve
// any number of concurrent evaluations.
type Engine struct {
	coll *types.RuleCollection
	pre  *prefilter.Prefilter
}

// New binds an engine to a collection and builds its keyword prefilter.
func New(coll *types.RuleCollection) *Engine {
	return &Engine{
		coll: coll,
		pre:  prefilter.New(coll),
	}
}

// Collection returns the bound collection.
func (e *Engine) Collection() *types.RuleCollection {
	return e.coll
}

// Evaluate runs every usable rule against the token, in file order then
// rule order, and reports matches grouped by origin. Evaluation is
// exhaustive: a hit never short-circuits the remaining rules, so the report
// always names everything that matched. Identical token and collection
// produce an identical report.
func (e *Engine) Evaluate(token string) *types.MatchReport {
	report := &types.MatchReport{}
	eligible := e.pre.ForToken(token)

	for _, file := range e.coll.Files {
		var names []string
		for _, r := range file.Rules {
			if !r.Usable || !eligible.Eligible(r) {
				continue
			}
			if r.Matcher.MatchString(token) {
				names = append(names, r.Name)
			}
		}
		if len(names) > 0 {
			report.Files = append(report.Files, types.FileMatches{
				Origin:    file.Origin,
				RuleNames: names,
			})
			report.TotalMatches += len(names)
		}
	}
	return report
}
