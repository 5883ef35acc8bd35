package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokensift/tokensift"
	"github.com/tokensift/tokensift/pkg/config"
	"github.com/tokensift/tokensift/pkg/rule"
	"github.com/tokensift/tokensift/pkg/types"
)

var (
	scanInputPath string
	scanRulesDir  string
	scanBuiltin   bool
	scanInclude   string
	scanExclude   string
	scanFormat    string
	scanColor     string
)

var scanCmd = &cobra.Command{
	Use:   "scan [token]",
	Short: "Classify a token or a batch of tokens",
	Long: `Evaluate a single token, or a file of newline-separated tokens, against
the loaded rule collection and report every matching rule grouped by the
file it came from.

A single token argument is evaluated exactly as given. Batch input lines
are whitespace-normalized first: leading whitespace is dropped, interior
runs collapse to their first character, and one trailing whitespace
character is removed. When both a token and --input are given, the input
file wins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVarP(&scanInputPath, "input", "f", "", "Path to newline-separated batch input ('-' for stdin)")
	scanCmd.Flags().StringVarP(&scanRulesDir, "rules", "d", "", "Directory of .yml/.yaml rule files")
	scanCmd.Flags().BoolVar(&scanBuiltin, "builtin", false, "Use the embedded builtin rules")
	scanCmd.Flags().StringVar(&scanInclude, "include", "", "Include only rules matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanExclude, "exclude", "", "Exclude rules matching regex pattern (comma-separated)")
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format: human, json")
	scanCmd.Flags().StringVar(&scanColor, "color", "auto", "Color output: auto, always, never")
}

func runScan(cmd *cobra.Command, args []string) error {
	scanner, err := buildScanner(cmd, scanRulesDir, scanBuiltin, scanInclude, scanExclude)
	if err != nil {
		return err
	}

	// Zero loaded files means every token would trivially report nothing;
	// refuse the run rather than pretend to classify.
	if scanner.FileCount() == 0 {
		return fmt.Errorf("no usable rule files loaded")
	}

	if scanInputPath == "" && len(args) == 0 {
		return fmt.Errorf("nothing to scan: pass a token argument or --input")
	}

	configureColor(scanColor)
	s := newStyles()
	out := cmd.OutOrStdout()

	if scanFormat == "human" && !quiet {
		printScanHeader(out, s, scanner.Collection())
	}

	// The input file wins when both a token and --input are given.
	if scanInputPath != "" {
		return runBatchScan(cmd, scanner, s)
	}

	report := scanner.EvaluateToken(args[0])
	stats := scanner.TokenStats(report)

	switch scanFormat {
	case "json":
		return writeJSONOutput(out, []*types.MatchReport{report}, stats)
	case "human":
		printTokenResult(out, s, args[0], report)
		printStatistics(out, s, stats)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}
}

func runBatchScan(cmd *cobra.Command, scanner *tokensift.Scanner, s *styles) error {
	in := cmd.InOrStdin()
	if scanInputPath != "-" {
		f, err := os.Open(scanInputPath)
		if err != nil {
			return fmt.Errorf("opening batch input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := cmd.OutOrStdout()

	switch scanFormat {
	case "json":
		reports, stats, err := scanner.ScanAll(in)
		if err != nil {
			return err
		}
		return writeJSONOutput(out, reports, stats)
	case "human":
		stats, err := scanner.ScanReader(in, func(token string, report *types.MatchReport) {
			printTokenResult(out, s, token, report)
		})
		if err != nil {
			return err
		}
		printStatistics(out, s, stats)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", scanFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// buildScanner assembles a scanner from the shared rule-source flags.
// Source precedence: --builtin, then -d, then the configured rules
// directory (config file or TOKENSIFT_RULES_DIR).
func buildScanner(cmd *cobra.Command, rulesDir string, builtin bool, include, exclude string) (*tokensift.Scanner, error) {
	var opts []tokensift.Option

	switch {
	case builtin:
		opts = append(opts, tokensift.WithBuiltinRules())
	case rulesDir != "":
		opts = append(opts, tokensift.WithRulesDir(rulesDir))
	default:
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			tokensift.WithRulesDir(cfg.RulesDir),
			tokensift.WithMaxRulesPerFile(cfg.MaxRulesPerFile),
			tokensift.WithRegexTimeout(cfg.MatchTimeout),
		)
	}

	if include != "" || exclude != "" {
		opts = append(opts, tokensift.WithRuleFilter(
			rule.ParsePatterns(include),
			rule.ParsePatterns(exclude),
		))
	}

	if verbose {
		errOut := cmd.ErrOrStderr()
		opts = append(opts, tokensift.WithDiagnostics(func(d tokensift.Diagnostic) {
			if d.Rule != "" {
				fmt.Fprintf(errOut, "skipped rule %q in %s: %s\n", d.Rule, d.Origin, d.Reason)
			} else {
				fmt.Fprintf(errOut, "skipped %s: %s\n", d.Origin, d.Reason)
			}
		}))
	}

	scanner, err := tokensift.NewScanner(opts...)
	if err != nil {
		return nil, err
	}
	return scanner, nil
}
