// Package tokensift provides rule-based token classification.
//
// Tokensift loads pattern rules from YAML documents, compiles them into
// a deterministic match engine, and reports which rules a text token
// triggers, grouped by the file each rule came from.
//
// # Basic Usage
//
// Create a scanner with the builtin rules and evaluate a token:
//
//	scanner, err := tokensift.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report := scanner.EvaluateToken("contact me at alice@example.com")
//	for _, file := range report.Files {
//	    fmt.Printf("%s: %v\n", file.Origin, file.RuleNames)
//	}
//
// # Custom Rule Directories
//
// Point the scanner at a directory of .yml/.yaml rule files:
//
//	scanner, err := tokensift.NewScanner(tokensift.WithRulesDir("/etc/tokensift/rules.d"))
//
// Files that fail to load and patterns that fail to compile are skipped
// silently; pass WithDiagnostics to observe what was dropped.
//
// # Batch Scanning
//
// Scan a stream of newline-separated tokens, one report per non-empty line:
//
//	stats, err := scanner.ScanReader(os.Stdin, func(token string, report *tokensift.MatchReport) {
//	    if report.Matched() {
//	        fmt.Printf("%s -> %d matches\n", token, report.TotalMatches)
//	    }
//	})
package tokensift

import (
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/tokensift/tokensift/pkg/engine"
	"github.com/tokensift/tokensift/pkg/rule"
	"github.com/tokensift/tokensift/pkg/scanner"
	"github.com/tokensift/tokensift/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/tokensift/tokensift" without subpackages.
type (
	// PatternRule is a single named, compiled pattern.
	PatternRule = types.PatternRule

	// RuleFile groups the usable rules loaded from one document.
	RuleFile = types.RuleFile

	// RuleCollection is an ordered set of rule files.
	RuleCollection = types.RuleCollection

	// MatchReport lists the rules a token triggered, grouped by file.
	MatchReport = types.MatchReport

	// FileMatches names the rules from one file that matched.
	FileMatches = types.FileMatches

	// ScanStatistics summarizes a scan run.
	ScanStatistics = types.ScanStatistics

	// TokenFunc receives each scanned token and its report.
	TokenFunc = scanner.TokenFunc

	// Diagnostic describes a unit dropped during loading.
	Diagnostic = rule.Diagnostic

	// DiagnosticFunc observes load-time diagnostics.
	DiagnosticFunc = rule.DiagnosticFunc
)

// Scanner evaluates tokens against an immutable rule collection.
type Scanner struct {
	coll *types.RuleCollection
	scn  *scanner.Scanner
}

type rulesSource int

const (
	sourceBuiltin rulesSource = iota
	sourceDir
	sourceFS
)

// scannerConfig holds scanner construction options.
type scannerConfig struct {
	source     rulesSource
	rulesDir   string
	fsys       fs.FS
	fsRoot     string
	maxPerFile int
	timeout    time.Duration
	diag       rule.DiagnosticFunc
	include    []string
	exclude    []string
}

// Option configures a Scanner.
type Option func(*scannerConfig)

// WithRulesDir loads rules from the .yml/.yaml files directly inside dir.
// Subdirectories are not descended into.
func WithRulesDir(dir string) Option {
	return func(c *scannerConfig) {
		c.source = sourceDir
		c.rulesDir = dir
	}
}

// WithRulesFS loads rules from a directory inside an fs.FS, which makes
// embedded and in-memory rule sets scannable. Pass "." to use the root.
func WithRulesFS(fsys fs.FS, root string) Option {
	return func(c *scannerConfig) {
		c.source = sourceFS
		c.fsys = fsys
		c.fsRoot = root
	}
}

// WithBuiltinRules selects the embedded rule set. This is the default.
func WithBuiltinRules() Option {
	return func(c *scannerConfig) {
		c.source = sourceBuiltin
	}
}

// WithMaxRulesPerFile caps how many rules a single document may
// contribute. Default is 1000.
func WithMaxRulesPerFile(n int) Option {
	return func(c *scannerConfig) {
		c.maxPerFile = n
	}
}

// WithRegexTimeout bounds each fallback-engine match attempt. Default is
// 5 seconds. Patterns handled by the standard engine are unaffected.
func WithRegexTimeout(d time.Duration) Option {
	return func(c *scannerConfig) {
		c.timeout = d
	}
}

// WithDiagnostics registers a callback for units dropped during loading:
// compile failures, empty patterns, per-file cap overflows, unreadable
// files. Loading stays silent without it.
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(c *scannerConfig) {
		c.diag = fn
	}
}

// WithRuleFilter keeps only rules whose names match one of the include
// patterns (all, when empty) and none of the exclude patterns. Patterns
// are regular expressions matched against rule names.
func WithRuleFilter(include, exclude []string) Option {
	return func(c *scannerConfig) {
		c.include = include
		c.exclude = exclude
	}
}

// NewScanner creates a Scanner with the given options.
//
// By default the scanner uses the embedded builtin rules, allows 1000
// rules per file, and gives fallback-engine patterns a 5 second match
// timeout. A scanner over zero files is valid and reports no matches;
// callers that consider that fatal check FileCount themselves.
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var loaderOpts []rule.LoaderOption
	if config.maxPerFile > 0 {
		loaderOpts = append(loaderOpts, rule.WithMaxRulesPerFile(config.maxPerFile))
	}
	if config.timeout > 0 {
		loaderOpts = append(loaderOpts, rule.WithMatchTimeout(config.timeout))
	}
	if config.diag != nil {
		loaderOpts = append(loaderOpts, rule.WithDiagnostics(config.diag))
	}

	var (
		coll *types.RuleCollection
		err  error
	)
	switch config.source {
	case sourceDir:
		coll, err = rule.BuildCollection(config.rulesDir, loaderOpts...)
	case sourceFS:
		coll, err = rule.NewLoaderWithFS(config.fsys, loaderOpts...).BuildCollection(config.fsRoot)
	default:
		coll, err = rule.BuildBuiltinCollection(loaderOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	if len(config.include) > 0 || len(config.exclude) > 0 {
		coll, err = rule.FilterCollection(coll, rule.FilterConfig{
			Include: config.include,
			Exclude: config.exclude,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Scanner{
		coll: coll,
		scn:  scanner.New(engine.New(coll)),
	}, nil
}

// EvaluateToken evaluates a single token exactly as given, with no
// whitespace normalization, and reports every matching rule grouped by
// file. Call Matched on the report for a yes/no answer.
func (s *Scanner) EvaluateToken(token string) *MatchReport {
	report, _ := s.scn.ScanToken(token)
	return report
}

// ScanReader scans newline-separated tokens from r. Each line is
// whitespace-normalized, empty results are skipped, and fn (when non-nil)
// receives every scanned token with its report.
func (s *Scanner) ScanReader(r io.Reader, fn TokenFunc) (ScanStatistics, error) {
	return s.scn.ScanReader(r, fn)
}

// ScanAll scans newline-separated tokens from r and collects the reports.
func (s *Scanner) ScanAll(r io.Reader) ([]*MatchReport, ScanStatistics, error) {
	return s.scn.ScanAll(r)
}

// TokenStats builds single-token statistics for a report.
func (s *Scanner) TokenStats(report *MatchReport) ScanStatistics {
	return s.scn.TokenStats(report)
}

// Collection returns the loaded rule collection.
func (s *Scanner) Collection() *RuleCollection {
	return s.coll
}

// RuleCount returns the number of usable rules loaded.
func (s *Scanner) RuleCount() int {
	return s.coll.TotalRules
}

// FileCount returns the number of rule files that contributed at least
// one usable rule.
func (s *Scanner) FileCount() int {
	return s.coll.FileCount()
}

// NormalizeToken applies batch-input whitespace normalization to a single
// line: leading whitespace is dropped, each interior run collapses to its
// first character, and one trailing whitespace character is removed.
func NormalizeToken(line string) string {
	return scanner.NormalizeToken(line)
}

// BuildCollection loads the .yml/.yaml files directly inside dir.
// It fails only when the directory itself cannot be read; unloadable
// files are skipped.
func BuildCollection(dir string) (*RuleCollection, error) {
	return rule.BuildCollection(dir)
}

// LoadBuiltinCollection loads the embedded rule set.
func LoadBuiltinCollection() (*RuleCollection, error) {
	return rule.BuildBuiltinCollection()
}
