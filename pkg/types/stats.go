package types

// ScanStatistics accumulates counters for one scan run. Values are
// threaded through calls rather than shared, so separate runs never
// interfere.
type ScanStatistics struct {
	FilesLoaded   int `json:"files_loaded"`
	RulesLoaded   int `json:"rules_loaded"`
	TokensScanned int `json:"tokens_scanned"`
	TotalMatches  int `json:"total_matches"`
}

// MatchRate returns total matches per scanned token as a percentage.
// Returns 0 when no token was scanned.
func (s ScanStatistics) MatchRate() float64 {
	if s.TokensScanned == 0 {
		return 0
	}
	return float64(s.TotalMatches) / float64(s.TokensScanned) * 100
}
