package rule

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tokensift/tokensift/pkg/types"
)

// DefaultMaxRulesPerFile caps how many rules a single document may
// contribute. Pairs past the cap are ignored, never an error.
const DefaultMaxRulesPerFile = 1000

// DefaultRulesDir is where collections are built from when the caller gives
// no directory.
const DefaultRulesDir = "/etc/tokensift/rules.d"

// ruleFileSuffixes are the recognized rule document extensions. Discovery
// is by suffix only; content problems surface later as silent exclusion.
var ruleFileSuffixes = []string{".yml", ".yaml"}

// Reasons carried by load diagnostics.
const (
	DiagCompileFailed  = "compile-failed"
	DiagEmptyPattern   = "empty-pattern"
	DiagCapReached     = "cap-reached"
	DiagNameTruncated  = "name-truncated"
	DiagFileUnreadable = "file-unreadable"
	DiagFileNoRules    = "no-usable-rules"
)

// Diagnostic describes one exclusion decision made during loading.
type Diagnostic struct {
	Origin string // document the decision applies to
	Rule   string // rule name for pair-scoped decisions, "" otherwise
	Reason string
	Err    error // underlying cause when one exists
}

// DiagnosticFunc observes exclusion decisions. Loading is silent by
// default; installing an observer makes the discards visible without
// changing them.
type DiagnosticFunc func(Diagnostic)

// Loader loads rule documents from a filesystem and builds collections.
type Loader struct {
	fsys       fs.FS
	maxPerFile int
	timeout    time.Duration
	diag       DiagnosticFunc
}

// LoaderOption adjusts loader behavior.
type LoaderOption func(*Loader)

// WithMaxRulesPerFile overrides the per-file rule cap. Non-positive values
// are ignored.
func WithMaxRulesPerFile(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxPerFile = n
		}
	}
}

// WithMatchTimeout overrides the match timeout applied to fallback-engine
// patterns.
func WithMatchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithDiagnostics installs an observer for exclusion decisions.
func WithDiagnostics(fn DiagnosticFunc) LoaderOption {
	return func(l *Loader) {
		l.diag = fn
	}
}

// NewLoader creates a loader over the embedded builtin rules.
func NewLoader(opts ...LoaderOption) *Loader {
	return NewLoaderWithFS(builtinRulesFS, opts...)
}

// NewLoaderWithFS creates a loader over a custom filesystem.
func NewLoaderWithFS(fsys fs.FS, opts ...LoaderOption) *Loader {
	l := &Loader{
		fsys:       fsys,
		maxPerFile: DefaultMaxRulesPerFile,
		timeout:    DefaultMatchTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile loads one rule document at an fs path. It returns nil when the
// file cannot be read or when no pair survived compilation: a document
// below the usability bar is treated as if it were never there.
func (l *Loader) LoadFile(name string) *types.RuleFile {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		l.report(Diagnostic{Origin: name, Reason: DiagFileUnreadable, Err: err})
		return nil
	}
	return l.LoadBytes(name, data)
}

// LoadBytes applies the inclusion policy to one in-memory document:
// compile each parsed pair in order, keep the ones that compile, stop
// consuming at the per-file cap, and materialize the file only if at
// least one rule survived. origin labels the document in reports and
// diagnostics.
func (l *Loader) LoadBytes(origin string, data []byte) *types.RuleFile {
	file := &types.RuleFile{Origin: origin}
	for _, p := range parseDocument(data) {
		if len(file.Rules) >= l.maxPerFile {
			l.report(Diagnostic{Origin: origin, Rule: p.Name, Reason: DiagCapReached})
			break
		}
		if p.Regex == "" {
			l.report(Diagnostic{Origin: origin, Rule: p.Name, Reason: DiagEmptyPattern})
			continue
		}
		m, err := CompileWithTimeout(p.Regex, l.timeout)
		if err != nil {
			l.report(Diagnostic{Origin: origin, Rule: p.Name, Reason: DiagCompileFailed, Err: err})
			continue
		}
		name := p.Name
		if len(name) > types.MaxRuleNameLen {
			name = name[:types.MaxRuleNameLen]
			l.report(Diagnostic{Origin: origin, Rule: name, Reason: DiagNameTruncated})
		}
		file.Rules = append(file.Rules, &types.PatternRule{
			Name:        name,
			Description: p.Description,
			Matcher:     m,
			Usable:      true,
			Keywords:    p.Keywords,
		})
	}
	if len(file.Rules) == 0 {
		l.report(Diagnostic{Origin: origin, Reason: DiagFileNoRules})
		return nil
	}
	return file
}

// BuildCollection loads every eligible document directly under root, an fs
// path; there is no recursion into subdirectories. Eligible means a
// recognized suffix and a regular file after following symlinks. Files
// appear in directory enumeration order. An unreadable directory is an
// error; a directory with nothing eligible builds an empty, valid
// collection, and the caller decides whether that is acceptable.
func (l *Loader) BuildCollection(root string) (*types.RuleCollection, error) {
	entries, err := fs.ReadDir(l.fsys, root)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory: %w", err)
	}

	coll := &types.RuleCollection{}
	for _, entry := range entries {
		if !hasRuleSuffix(entry.Name()) {
			continue
		}
		name := path.Join(root, entry.Name())
		info, err := fs.Stat(l.fsys, name) // follows symlinks, unlike entry.Info
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if file := l.LoadFile(name); file != nil {
			coll.Files = append(coll.Files, file)
			coll.TotalRules += len(file.Rules)
		}
	}
	return coll, nil
}

func (l *Loader) report(d Diagnostic) {
	if l.diag != nil {
		l.diag(d)
	}
}

func hasRuleSuffix(name string) bool {
	for _, suffix := range ruleFileSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// BuildCollection loads the eligible rule documents directly under an OS
// directory.
func BuildCollection(dir string, opts ...LoaderOption) (*types.RuleCollection, error) {
	coll, err := NewLoaderWithFS(os.DirFS(dir), opts...).BuildCollection(".")
	if err != nil {
		return nil, err
	}
	for _, f := range coll.Files {
		f.Origin = filepath.Join(dir, f.Origin)
	}
	return coll, nil
}

// BuildBuiltinCollection loads the rule files embedded in the binary.
func BuildBuiltinCollection(opts ...LoaderOption) (*types.RuleCollection, error) {
	return NewLoader(opts...).BuildCollection("rules")
}
