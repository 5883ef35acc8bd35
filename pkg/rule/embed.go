package rule

import "embed"

// builtinRulesFS embeds the default rule files compiled into the binary.
// These load through the same code path as on-disk rule directories, so
// the inclusion policy and per-file cap apply to them too.
//
//go:embed rules/*.yml
var builtinRulesFS embed.FS
