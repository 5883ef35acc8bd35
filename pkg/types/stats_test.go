package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanStatistics_MatchRate(t *testing.T) {
	stats := ScanStatistics{TokensScanned: 4, TotalMatches: 1}
	assert.InDelta(t, 25.0, stats.MatchRate(), 0.001)
}

func TestScanStatistics_MatchRate_ZeroTokens(t *testing.T) {
	stats := ScanStatistics{TotalMatches: 3}
	assert.Equal(t, 0.0, stats.MatchRate())
}

func TestScanStatistics_MatchRate_OverHundred(t *testing.T) {
	// Several rules can match one token, so the rate can exceed 100%.
	stats := ScanStatistics{TokensScanned: 2, TotalMatches: 5}
	assert.InDelta(t, 250.0, stats.MatchRate(), 0.001)
}

func TestMatchReport_Matched(t *testing.T) {
	empty := &MatchReport{}
	assert.False(t, empty.Matched())

	report := &MatchReport{
		Files:        []FileMatches{{Origin: "a.yml", RuleNames: []string{"email"}}},
		TotalMatches: 1,
	}
	assert.True(t, report.Matched())
}

func TestRuleCollection_Counts(t *testing.T) {
	coll := &RuleCollection{
		Files: []*RuleFile{
			{Origin: "a.yml", Rules: []*PatternRule{{Name: "r1", Usable: true}, {Name: "r2", Usable: true}}},
			{Origin: "b.yml", Rules: []*PatternRule{{Name: "r3", Usable: true}}},
		},
		TotalRules: 3,
	}

	assert.Equal(t, 2, coll.FileCount())
	assert.False(t, coll.Empty())
	assert.Equal(t, 2, coll.Files[0].RuleCount())

	sum := 0
	for _, f := range coll.Files {
		sum += f.RuleCount()
	}
	assert.Equal(t, coll.TotalRules, sum)
}

func TestRuleCollection_Empty(t *testing.T) {
	coll := &RuleCollection{}
	assert.True(t, coll.Empty())
	assert.Equal(t, 0, coll.FileCount())
}
