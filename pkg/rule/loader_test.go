package rule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func collectDiagnostics() (*[]Diagnostic, DiagnosticFunc) {
	var diags []Diagnostic
	return &diags, func(d Diagnostic) { diags = append(diags, d) }
}

func hasDiagnostic(diags []Diagnostic, reason string) bool {
	for _, d := range diags {
		if d.Reason == reason {
			return true
		}
	}
	return false
}

func TestLoadFile_Valid(t *testing.T) {
	fsys := fstest.MapFS{
		"tokens.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: email
      regex: '[a-z]+@[a-z]+\.[a-z]+'
  - pattern:
      name: digits
      regex: '[0-9]+'
`)},
	}

	file := NewLoaderWithFS(fsys).LoadFile("tokens.yml")
	if file == nil {
		t.Fatal("expected a rule file")
	}
	if file.Origin != "tokens.yml" {
		t.Errorf("expected origin tokens.yml, got %q", file.Origin)
	}
	if len(file.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(file.Rules))
	}
	for _, r := range file.Rules {
		if !r.Usable || r.Matcher == nil {
			t.Errorf("rule %q should be usable with a compiled matcher", r.Name)
		}
	}
	if file.Rules[0].Name != "email" || file.Rules[1].Name != "digits" {
		t.Errorf("rules out of document order: %q, %q", file.Rules[0].Name, file.Rules[1].Name)
	}
}

func TestLoadFile_CompileFailureDiscardedSilently(t *testing.T) {
	fsys := fstest.MapFS{
		"mixed.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: good
      regex: 'ok[0-9]+'
  - pattern:
      name: broken
      regex: '(unclosed'
  - pattern:
      name: also-good
      regex: 'fine'
`)},
	}

	diags, fn := collectDiagnostics()
	file := NewLoaderWithFS(fsys, WithDiagnostics(fn)).LoadFile("mixed.yml")
	if file == nil {
		t.Fatal("expected a rule file")
	}
	if len(file.Rules) != 2 {
		t.Fatalf("expected exactly the compiling rules, got %d", len(file.Rules))
	}
	if file.Rules[0].Name != "good" || file.Rules[1].Name != "also-good" {
		t.Errorf("unexpected surviving rules: %q, %q", file.Rules[0].Name, file.Rules[1].Name)
	}
	if !hasDiagnostic(*diags, DiagCompileFailed) {
		t.Error("expected a compile-failed diagnostic")
	}
}

func TestLoadFile_NoUsableRules(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: bad
      regex: '(unclosed'
`)},
	}

	diags, fn := collectDiagnostics()
	file := NewLoaderWithFS(fsys, WithDiagnostics(fn)).LoadFile("broken.yml")
	if file != nil {
		t.Fatalf("a file with no usable rule must not materialize, got %+v", file)
	}
	if !hasDiagnostic(*diags, DiagFileNoRules) {
		t.Error("expected a no-usable-rules diagnostic")
	}
}

func TestLoadFile_EmptyPatternSkipped(t *testing.T) {
	fsys := fstest.MapFS{
		"empty.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: hollow
      regex: ""
  - pattern:
      name: real
      regex: 'x'
`)},
	}

	diags, fn := collectDiagnostics()
	file := NewLoaderWithFS(fsys, WithDiagnostics(fn)).LoadFile("empty.yml")
	if file == nil || len(file.Rules) != 1 {
		t.Fatalf("expected only the non-empty pattern to load, got %+v", file)
	}
	if file.Rules[0].Name != "real" {
		t.Errorf("expected rule real, got %q", file.Rules[0].Name)
	}
	if !hasDiagnostic(*diags, DiagEmptyPattern) {
		t.Error("expected an empty-pattern diagnostic")
	}
}

func TestLoadFile_CapStopsConsumption(t *testing.T) {
	fsys := fstest.MapFS{
		"many.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: one
      regex: 'a'
  - pattern:
      name: two
      regex: 'b'
  - pattern:
      name: three
      regex: 'c'
`)},
	}

	diags, fn := collectDiagnostics()
	file := NewLoaderWithFS(fsys, WithMaxRulesPerFile(2), WithDiagnostics(fn)).LoadFile("many.yml")
	if file == nil || len(file.Rules) != 2 {
		t.Fatalf("expected the cap to hold at 2 rules, got %+v", file)
	}
	if file.Rules[0].Name != "one" || file.Rules[1].Name != "two" {
		t.Errorf("cap should keep the earliest rules, got %q, %q", file.Rules[0].Name, file.Rules[1].Name)
	}
	if !hasDiagnostic(*diags, DiagCapReached) {
		t.Error("expected a cap-reached diagnostic")
	}
}

func TestLoadFile_LongNameTruncated(t *testing.T) {
	long := strings.Repeat("n", 300)
	fsys := fstest.MapFS{
		"long.yml": &fstest.MapFile{Data: []byte("patterns:\n  - pattern:\n      name: " + long + "\n      regex: 'x'\n")},
	}

	file := NewLoaderWithFS(fsys).LoadFile("long.yml")
	if file == nil || len(file.Rules) != 1 {
		t.Fatalf("expected one rule, got %+v", file)
	}
	if got := len(file.Rules[0].Name); got != 256 {
		t.Errorf("expected name truncated to 256 characters, got %d", got)
	}
}

func TestLoadFile_Unreadable(t *testing.T) {
	diags, fn := collectDiagnostics()
	file := NewLoaderWithFS(fstest.MapFS{}, WithDiagnostics(fn)).LoadFile("missing.yml")
	if file != nil {
		t.Fatal("missing file must not materialize")
	}
	if !hasDiagnostic(*diags, DiagFileUnreadable) {
		t.Error("expected a file-unreadable diagnostic")
	}
}

func TestBuildCollection_FiltersAndOrders(t *testing.T) {
	rule := func(name string) []byte {
		return []byte("patterns:\n  - pattern:\n      name: " + name + "\n      regex: 'x'\n")
	}
	fsys := fstest.MapFS{
		"b.yml":          &fstest.MapFile{Data: rule("from-b")},
		"a.yaml":         &fstest.MapFile{Data: rule("from-a")},
		"notes.txt":      &fstest.MapFile{Data: []byte("not a rule file")},
		"nested/c.yml":   &fstest.MapFile{Data: rule("from-nested")},
		"dir.yml/d.yaml": &fstest.MapFile{Data: rule("inside-dir")},
	}

	coll, err := NewLoaderWithFS(fsys).BuildCollection(".")
	if err != nil {
		t.Fatalf("BuildCollection failed: %v", err)
	}
	if len(coll.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(coll.Files))
	}
	// fs.ReadDir enumerates lexicographically.
	if coll.Files[0].Origin != "a.yaml" || coll.Files[1].Origin != "b.yml" {
		t.Errorf("unexpected file order: %q, %q", coll.Files[0].Origin, coll.Files[1].Origin)
	}
	if coll.TotalRules != 2 {
		t.Errorf("expected TotalRules 2, got %d", coll.TotalRules)
	}
}

func TestBuildCollection_ZeroUsableFileExcluded(t *testing.T) {
	fsys := fstest.MapFS{
		"good.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: a
      regex: 'a+'
  - pattern:
      name: b
      regex: 'b+'
  - pattern:
      name: broken
      regex: '(bad'
`)},
		"useless.yml": &fstest.MapFile{Data: []byte(`patterns:
  - pattern:
      name: nope
      regex: '(bad'
`)},
	}

	coll, err := NewLoaderWithFS(fsys).BuildCollection(".")
	if err != nil {
		t.Fatalf("BuildCollection failed: %v", err)
	}
	if len(coll.Files) != 1 {
		t.Fatalf("expected only the usable file, got %d", len(coll.Files))
	}
	if coll.Files[0].Origin != "good.yml" || len(coll.Files[0].Rules) != 2 {
		t.Errorf("unexpected collection contents: %+v", coll.Files[0])
	}
	if coll.TotalRules != 2 {
		t.Errorf("expected TotalRules 2, got %d", coll.TotalRules)
	}
}

func TestBuildCollection_EmptyDirIsValid(t *testing.T) {
	fsys := fstest.MapFS{
		"readme.md": &fstest.MapFile{Data: []byte("no rules here")},
	}

	coll, err := NewLoaderWithFS(fsys).BuildCollection(".")
	if err != nil {
		t.Fatalf("BuildCollection failed: %v", err)
	}
	if !coll.Empty() || coll.TotalRules != 0 {
		t.Errorf("expected an empty, valid collection, got %+v", coll)
	}
}

func TestBuildCollection_OSDirectory(t *testing.T) {
	dir := t.TempDir()
	content := []byte("patterns:\n  - pattern:\n      name: disk\n      regex: 'd+'\n")
	if err := os.WriteFile(filepath.Join(dir, "disk.yml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	coll, err := BuildCollection(dir)
	if err != nil {
		t.Fatalf("BuildCollection failed: %v", err)
	}
	if len(coll.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(coll.Files))
	}
	if want := filepath.Join(dir, "disk.yml"); coll.Files[0].Origin != want {
		t.Errorf("expected origin %q, got %q", want, coll.Files[0].Origin)
	}
}

func TestBuildCollection_UnreadableDir(t *testing.T) {
	if _, err := BuildCollection(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("expected an error for an unopenable directory")
	}
}

func TestBuildBuiltinCollection(t *testing.T) {
	coll, err := BuildBuiltinCollection()
	if err != nil {
		t.Fatalf("BuildBuiltinCollection failed: %v", err)
	}
	if coll.Empty() {
		t.Fatal("builtin collection should not be empty")
	}

	sum := 0
	for _, f := range coll.Files {
		if len(f.Rules) == 0 {
			t.Errorf("builtin file %q has no rules", f.Origin)
		}
		for _, r := range f.Rules {
			if !r.Usable || r.Matcher == nil {
				t.Errorf("builtin rule %q in %q did not compile", r.Name, f.Origin)
			}
		}
		sum += len(f.Rules)
	}
	if sum != coll.TotalRules {
		t.Errorf("TotalRules %d does not match per-file sum %d", coll.TotalRules, sum)
	}
}

func TestLoadBytes(t *testing.T) {
	doc := []byte(`patterns:
  - pattern:
      name: hexid
      regex: '[0-9a-f]{8}'
`)

	file := NewLoader().LoadBytes("inline.yml", doc)
	if file == nil {
		t.Fatal("expected a rule file")
	}
	if file.Origin != "inline.yml" {
		t.Errorf("expected origin inline.yml, got %q", file.Origin)
	}
	if len(file.Rules) != 1 || file.Rules[0].Name != "hexid" {
		t.Fatalf("unexpected rules: %+v", file.Rules)
	}

	if got := NewLoader().LoadBytes("empty.yml", []byte("patterns: []")); got != nil {
		t.Errorf("document with no usable rules should load as nil, got %+v", got)
	}
}
