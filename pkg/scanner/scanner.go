// Package scanner drives a match engine over single tokens or
// line-oriented batch input.
package scanner

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tokensift/tokensift/pkg/engine"
	"github.com/tokensift/tokensift/pkg/types"
)

// Batch lines can be long; start with a generous buffer and refuse only
// truly pathological input.
const (
	initialBufSize = 64 * 1024
	maxLineSize    = 1024 * 1024
)

// TokenFunc observes each scanned token and its report, in input order.
type TokenFunc func(token string, report *types.MatchReport)

// Scanner runs tokens through an engine and accounts for what it scanned.
type Scanner struct {
	engine *engine.Engine
}

// New creates a scanner over the engine.
func New(eng *engine.Engine) *Scanner {
	return &Scanner{engine: eng}
}

// Engine returns the underlying engine.
func (s *Scanner) Engine() *engine.Engine {
	return s.engine
}

// ScanToken evaluates one token as given, with no normalization, and
// reports whether anything matched.
func (s *Scanner) ScanToken(token string) (*types.MatchReport, bool) {
	report := s.engine.Evaluate(token)
	return report, report.Matched()
}

// TokenStats builds the statistics for a single already-evaluated token.
func (s *Scanner) TokenStats(report *types.MatchReport) types.ScanStatistics {
	stats := s.baseStats()
	stats.TokensScanned = 1
	stats.TotalMatches = report.TotalMatches
	return stats
}

// ScanReader consumes r line by line: each line is normalized, lines that
// normalize to nothing are skipped without counting, and every surviving
// token is evaluated. fn, when non-nil, observes each (token, report) pair
// in input order. Statistics are fresh per call, so concurrent scans over
// the same scanner do not interfere. A read failure aborts the scan and
// returns the statistics accumulated up to that point alongside the error.
func (s *Scanner) ScanReader(r io.Reader, fn TokenFunc) (types.ScanStatistics, error) {
	stats := s.baseStats()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, initialBufSize), maxLineSize)
	for sc.Scan() {
		token := NormalizeToken(sc.Text())
		if token == "" {
			continue
		}
		report := s.engine.Evaluate(token)
		stats.TokensScanned++
		stats.TotalMatches += report.TotalMatches
		if fn != nil {
			fn(token, report)
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("reading batch input: %w", err)
	}
	return stats, nil
}

// ScanAll collects every report from ScanReader in input order.
func (s *Scanner) ScanAll(r io.Reader) ([]*types.MatchReport, types.ScanStatistics, error) {
	var reports []*types.MatchReport
	stats, err := s.ScanReader(r, func(_ string, report *types.MatchReport) {
		reports = append(reports, report)
	})
	return reports, stats, err
}

func (s *Scanner) baseStats() types.ScanStatistics {
	coll := s.engine.Collection()
	return types.ScanStatistics{
		FilesLoaded: coll.FileCount(),
		RulesLoaded: coll.TotalRules,
	}
}
