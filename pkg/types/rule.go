package types

// MaxRuleNameLen bounds stored rule names. Longer names are truncated at
// load time, never rejected.
const MaxRuleNameLen = 256

// Matcher executes a compiled pattern against candidate text.
type Matcher interface {
	// MatchString reports whether the pattern matches anywhere in s.
	MatchString(s string) bool
}

// PatternRule is one named, compiled pattern from a rule file.
type PatternRule struct {
	Name        string   // non-empty, at most MaxRuleNameLen characters
	Description string   // optional
	Matcher     Matcher  // compiled pattern; nil iff !Usable
	Usable      bool     // false when the pattern text failed to compile
	Keywords    []string // optional literals for prefiltering; empty means always evaluate
}

// RuleFile groups the usable rules loaded from one rule source, in
// document order.
type RuleFile struct {
	Origin string // path or other identifier of the source document
	Rules  []*PatternRule
}

// RuleCount returns the number of rules loaded from this file.
func (f *RuleFile) RuleCount() int {
	return len(f.Rules)
}

// RuleCollection is the full rule set for a run. It is built once and
// read-only afterwards, so concurrent readers need no locking.
//
// Invariants: every member file holds at least one usable rule, and
// TotalRules equals the sum of the per-file rule counts.
type RuleCollection struct {
	Files      []*RuleFile
	TotalRules int
}

// FileCount returns the number of loaded rule files.
func (c *RuleCollection) FileCount() int {
	return len(c.Files)
}

// Empty reports whether no rule file loaded successfully.
func (c *RuleCollection) Empty() bool {
	return len(c.Files) == 0
}
