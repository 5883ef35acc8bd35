//go:build wasm

package main

import (
	"encoding/json"
	"sync"
	"syscall/js"

	"github.com/tokensift/tokensift/pkg/engine"
	"github.com/tokensift/tokensift/pkg/rule"
	"github.com/tokensift/tokensift/pkg/scanner"
	"github.com/tokensift/tokensift/pkg/types"
)

var (
	scanners   = make(map[int]*scanner.Scanner)
	scannersMu sync.RWMutex
	nextID     int
)

// evaluateResult mirrors the scan API's single-token response.
type evaluateResult struct {
	Matched bool               `json:"matched"`
	Report  *types.MatchReport `json:"report"`
}

// batchResult mirrors the scan API's batch response.
type batchResult struct {
	Reports []*types.MatchReport `json:"reports"`
	Stats   types.ScanStatistics `json:"stats"`
}

// ruleInfo is the serializable projection of one loaded rule.
type ruleInfo struct {
	Name        string   `json:"name"`
	Origin      string   `json:"origin"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// newScanner creates a scanner from a YAML rules document.
// JS: TokensiftNewScanner(rulesYAML) -> {handle} or {error}
// Pass "builtin" to use the embedded rule set.
func newScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "rulesYAML argument required"}
	}

	rulesYAML := args[0].String()

	var (
		coll *types.RuleCollection
		err  error
	)
	if rulesYAML == "builtin" {
		coll, err = rule.BuildBuiltinCollection()
		if err != nil {
			return map[string]interface{}{"error": "failed to load builtin rules: " + err.Error()}
		}
	} else {
		coll = &types.RuleCollection{}
		if file := rule.NewLoader().LoadBytes("inline.yml", []byte(rulesYAML)); file != nil {
			coll.Files = append(coll.Files, file)
			coll.TotalRules = file.RuleCount()
		}
	}
	if coll.Empty() {
		return map[string]interface{}{"error": "no usable rules in document"}
	}

	scn := scanner.New(engine.New(coll))

	// Register scanner
	scannersMu.Lock()
	id := nextID
	nextID++
	scanners[id] = scn
	scannersMu.Unlock()

	return map[string]interface{}{"handle": id}
}

// evaluate classifies a single token, taken exactly as given.
// JS: TokensiftEvaluate(handle, token) -> JSON result or {error}
func evaluate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and token arguments required"}
	}

	handle := args[0].Int()
	token := args[1].String()

	scannersMu.RLock()
	scn, ok := scanners[handle]
	scannersMu.RUnlock()

	if !ok {
		return map[string]interface{}{"error": "invalid scanner handle"}
	}

	report, matched := scn.ScanToken(token)
	jsonBytes, err := json.Marshal(evaluateResult{Matched: matched, Report: report})
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal result: " + err.Error()}
	}
	return string(jsonBytes)
}

// scanBatch classifies an array of raw tokens. Each token is
// whitespace-normalized first and tokens that normalize to empty are
// skipped, matching batch-file scanning.
// JS: TokensiftScanBatch(handle, tokensJSON) -> JSON result or {error}
func scanBatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "handle and tokensJSON arguments required"}
	}

	handle := args[0].Int()
	tokensJSON := args[1].String()

	scannersMu.RLock()
	scn, ok := scanners[handle]
	scannersMu.RUnlock()

	if !ok {
		return map[string]interface{}{"error": "invalid scanner handle"}
	}

	var tokens []string
	if err := json.Unmarshal([]byte(tokensJSON), &tokens); err != nil {
		return map[string]interface{}{"error": "failed to parse tokens JSON: " + err.Error()}
	}

	coll := scn.Engine().Collection()
	result := batchResult{
		Reports: make([]*types.MatchReport, 0, len(tokens)),
		Stats: types.ScanStatistics{
			FilesLoaded: coll.FileCount(),
			RulesLoaded: coll.TotalRules,
		},
	}
	for _, raw := range tokens {
		token := scanner.NormalizeToken(raw)
		if token == "" {
			continue
		}
		report, _ := scn.ScanToken(token)
		result.Reports = append(result.Reports, report)
		result.Stats.TokensScanned++
		result.Stats.TotalMatches += report.TotalMatches
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal result: " + err.Error()}
	}
	return string(jsonBytes)
}

// closeScanner drops a scanner handle.
// JS: TokensiftCloseScanner(handle)
func closeScanner(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "handle argument required"}
	}

	handle := args[0].Int()

	scannersMu.Lock()
	delete(scanners, handle)
	scannersMu.Unlock()

	return nil
}

// builtinRules lists the embedded rules.
// JS: TokensiftBuiltinRules() -> JSON array or {error}
func builtinRules(this js.Value, args []js.Value) interface{} {
	coll, err := rule.BuildBuiltinCollection()
	if err != nil {
		return map[string]interface{}{"error": "failed to load builtin rules: " + err.Error()}
	}

	infos := make([]ruleInfo, 0, coll.TotalRules)
	for _, f := range coll.Files {
		for _, r := range f.Rules {
			infos = append(infos, ruleInfo{
				Name:        r.Name,
				Origin:      f.Origin,
				Description: r.Description,
				Keywords:    r.Keywords,
			})
		}
	}

	jsonBytes, err := json.Marshal(infos)
	if err != nil {
		return map[string]interface{}{"error": "failed to marshal rules: " + err.Error()}
	}
	return string(jsonBytes)
}
