package rule

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/tokensift/tokensift/pkg/types"
)

// DefaultMatchTimeout bounds match time for patterns that fall back to the
// backtracking engine, so a pathological pattern cannot hang a scan.
const DefaultMatchTimeout = 5 * time.Second

// Compile turns pattern text into an executable matcher using the default
// match timeout. See CompileWithTimeout.
func Compile(pattern string) (types.Matcher, error) {
	return CompileWithTimeout(pattern, DefaultMatchTimeout)
}

// CompileWithTimeout compiles pattern text, trying Go's RE2 engine first
// (linear time, no backtracking) and falling back to regexp2 for the Perl
// features RE2 rejects, such as backreferences and lookaround. Patterns are
// never implicitly anchored. Failure in both engines is an expected,
// recoverable outcome; the caller decides what to do with the unusable
// pattern.
func CompileWithTimeout(pattern string, timeout time.Duration) (types.Matcher, error) {
	if re, err := regexp.Compile(pattern); err == nil {
		return re, nil
	}

	re2, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("pattern rejected by both engines: %w", err)
	}
	re2.MatchTimeout = timeout
	return &regexp2Matcher{re: re2}, nil
}

// regexp2Matcher adapts regexp2's (bool, error) match API to the boolean
// Matcher contract. A runtime error, including a match timeout, reads as
// no-match.
type regexp2Matcher struct {
	re *regexp2.Regexp
}

func (m *regexp2Matcher) MatchString(s string) bool {
	ok, err := m.re.MatchString(s)
	return err == nil && ok
}
