package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tokensift/tokensift/pkg/types"
)

var (
	rulesListDir     string
	rulesListBuiltin bool
	rulesListFormat  string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage pattern rules",
	Long:  "Commands for listing and inspecting loaded pattern rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded rules",
	Long:  "Display every usable rule with the file it came from",
	RunE:  runRulesList,
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().StringVarP(&rulesListDir, "rules", "d", "", "Directory of .yml/.yaml rule files")
	rulesListCmd.Flags().BoolVar(&rulesListBuiltin, "builtin", false, "Use the embedded builtin rules")
	rulesListCmd.Flags().StringVar(&rulesListFormat, "format", "table", "Output format: table, json")
}

func runRulesList(cmd *cobra.Command, args []string) error {
	scanner, err := buildScanner(cmd, rulesListDir, rulesListBuiltin, "", "")
	if err != nil {
		return err
	}

	coll := scanner.Collection()
	switch rulesListFormat {
	case "json":
		return outputRulesJSON(cmd, coll)
	case "table":
		return outputRulesTable(cmd, coll)
	default:
		return fmt.Errorf("unknown output format: %s", rulesListFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// ruleListing is the JSON projection of one rule; compiled matchers do
// not serialize.
type ruleListing struct {
	Name        string   `json:"name"`
	Origin      string   `json:"origin"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

func outputRulesJSON(cmd *cobra.Command, coll *types.RuleCollection) error {
	listings := make([]ruleListing, 0, coll.TotalRules)
	for _, f := range coll.Files {
		for _, r := range f.Rules {
			listings = append(listings, ruleListing{
				Name:        r.Name,
				Origin:      f.Origin,
				Description: r.Description,
				Keywords:    r.Keywords,
			})
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputRulesTable(cmd *cobra.Command, coll *types.RuleCollection) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Name\tFile\tKeywords\n")
	fmt.Fprintf(w, "----\t----\t--------\n")

	for _, f := range coll.Files {
		for _, r := range f.Rules {
			fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, f.Origin, strings.Join(r.Keywords, ","))
		}
	}

	return nil
}
