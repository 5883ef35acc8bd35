package types

// FileMatches lists the rules from a single file that matched one token.
// RuleNames preserves rule evaluation order.
type FileMatches struct {
	Origin    string   `json:"origin"`
	RuleNames []string `json:"rule_names"`
}

// MatchReport is the result of evaluating one token against a collection.
// A file appears in Files only when at least one of its rules matched;
// file order follows collection order. Each report is freshly allocated,
// never reused across tokens.
type MatchReport struct {
	Files        []FileMatches `json:"files,omitempty"`
	TotalMatches int           `json:"total_matches"`
}

// Matched reports whether any rule matched.
func (r *MatchReport) Matched() bool {
	return r.TotalMatches > 0
}
