package serve

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tokensift/tokensift/pkg/scanner"
	"github.com/tokensift/tokensift/pkg/types"
)

// ScanRequest asks for a single token to be evaluated as-is, no
// normalization.
type ScanRequest struct {
	Token string `json:"token"`
}

// ScanResponse reports the grouped matches for one token.
type ScanResponse struct {
	Matched bool               `json:"matched"`
	Report  *types.MatchReport `json:"report"`
}

// BatchScanRequest carries raw tokens. Each one is whitespace-normalized
// before evaluation and tokens that normalize to empty are skipped.
type BatchScanRequest struct {
	Tokens []string `json:"tokens"`
}

// BatchScanResponse returns one report per scanned token, in order of the
// tokens that survived normalization.
type BatchScanResponse struct {
	Reports []*types.MatchReport `json:"reports"`
	Stats   types.ScanStatistics `json:"stats"`
}

// RuleFileInfo lists the rule names one file contributed.
type RuleFileInfo struct {
	Origin string   `json:"origin"`
	Rules  []string `json:"rules"`
}

// RulesResponse describes the currently loaded collection.
type RulesResponse struct {
	Files      []RuleFileInfo `json:"files"`
	TotalRules int            `json:"total_rules"`
}

// HealthResponse reports liveness plus the size of the live collection.
type HealthResponse struct {
	Status string `json:"status"`
	Files  int    `json:"files"`
	Rules  int    `json:"rules"`
}

// ErrorResponse carries a client-facing error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	coll := s.current().Engine().Collection()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Files:  coll.FileCount(),
		Rules:  coll.TotalRules,
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	coll := s.current().Engine().Collection()
	resp := RulesResponse{
		Files:      make([]RuleFileInfo, 0, coll.FileCount()),
		TotalRules: coll.TotalRules,
	}
	for _, f := range coll.Files {
		info := RuleFileInfo{
			Origin: f.Origin,
			Rules:  make([]string, 0, len(f.Rules)),
		}
		for _, rl := range f.Rules {
			info.Rules = append(info.Rules, rl.Name)
		}
		resp.Files = append(resp.Files, info)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		s.writeError(w, http.StatusBadRequest, "token must not be empty")
		return
	}

	report, matched := s.current().ScanToken(req.Token)
	s.writeJSON(w, http.StatusOK, ScanResponse{Matched: matched, Report: report})
}

func (s *Server) handleScanBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tokens) == 0 {
		s.writeError(w, http.StatusBadRequest, "tokens must not be empty")
		return
	}

	scn := s.current()
	coll := scn.Engine().Collection()
	resp := BatchScanResponse{
		Reports: make([]*types.MatchReport, 0, len(req.Tokens)),
		Stats: types.ScanStatistics{
			FilesLoaded: coll.FileCount(),
			RulesLoaded: coll.TotalRules,
		},
	}
	for _, raw := range req.Tokens {
		token := scanner.NormalizeToken(raw)
		if token == "" {
			continue
		}
		report, _ := scn.ScanToken(token)
		resp.Reports = append(resp.Reports, report)
		resp.Stats.TokensScanned++
		resp.Stats.TotalMatches += report.TotalMatches
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
