package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/tokensift/tokensift/pkg/types"
)

// maxTokenDisplay caps how much of a token the human report echoes back.
const maxTokenDisplay = 80

// styles holds color formatters for the human report.
type styles struct {
	banner   *color.Color
	heading  *color.Color
	origin   *color.Color
	ruleName *color.Color
	hit      *color.Color
	miss     *color.Color
	token    *color.Color
}

// newStyles creates color formatters honoring the global color.NoColor
// state set by configureColor.
func newStyles() *styles {
	s := &styles{
		banner:   color.New(color.Bold, color.FgHiWhite),
		heading:  color.New(color.Bold),
		origin:   color.New(color.FgHiBlue),
		ruleName: color.New(color.Bold, color.FgHiGreen),
		hit:      color.New(color.FgGreen),
		miss:     color.New(color.FgYellow),
		token:    color.New(color.FgHiWhite),
	}

	if color.NoColor {
		s.banner.DisableColor()
		s.heading.DisableColor()
		s.origin.DisableColor()
		s.ruleName.DisableColor()
		s.hit.DisableColor()
		s.miss.DisableColor()
		s.token.DisableColor()
	}

	return s
}

// configureColor resolves the --color flag into the global color state.
// "auto" enables color only on a terminal with NO_COLOR unset.
func configureColor(flag string) {
	switch flag {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func printScanHeader(out io.Writer, s *styles, coll *types.RuleCollection) {
	fmt.Fprintf(out, "%s\n", s.banner.Sprintf("tokensift v%s", version))
	fmt.Fprintf(out, "[%s] loaded %d rules from %d files\n\n",
		timestamp(), coll.TotalRules, coll.FileCount())
}

// printTokenResult writes one token's outcome: the token itself, then
// each contributing file with its matching rule names, or a no-match line.
func printTokenResult(out io.Writer, s *styles, token string, report *types.MatchReport) {
	fmt.Fprintf(out, "[%s] %s\n", timestamp(), s.token.Sprint(truncateToken(token)))

	if !report.Matched() {
		fmt.Fprintf(out, "  %s\n", s.miss.Sprint("✗ no matches"))
		return
	}

	for _, file := range report.Files {
		fmt.Fprintf(out, "  %s %s\n", s.hit.Sprint("✓"), s.origin.Sprint(file.Origin))
		for _, name := range file.RuleNames {
			fmt.Fprintf(out, "      %s\n", s.ruleName.Sprint(name))
		}
	}
}

func printStatistics(out io.Writer, s *styles, stats types.ScanStatistics) {
	fmt.Fprintf(out, "\n%s\n", s.heading.Sprint("-------- statistics --------"))
	fmt.Fprintf(out, "files loaded:   %d\n", stats.FilesLoaded)
	fmt.Fprintf(out, "rules loaded:   %d\n", stats.RulesLoaded)
	fmt.Fprintf(out, "tokens scanned: %d\n", stats.TokensScanned)
	fmt.Fprintf(out, "total matches:  %d\n", stats.TotalMatches)
	fmt.Fprintf(out, "match rate:     %.1f%%\n", stats.MatchRate())
}

func truncateToken(token string) string {
	if len(token) <= maxTokenDisplay {
		return token
	}
	return token[:maxTokenDisplay-3] + "..."
}

// scanOutput is the JSON shape shared by single-token and batch scans.
type scanOutput struct {
	Reports []*types.MatchReport `json:"reports"`
	Stats   types.ScanStatistics `json:"stats"`
}

func writeJSONOutput(out io.Writer, reports []*types.MatchReport, stats types.ScanStatistics) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(scanOutput{Reports: reports, Stats: stats})
}
