package grader

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/sample"
	"github.com/stellarlinkco/model-eval/internal/textmatch"
)

// Match modes.
const (
	MatchExact    = "exact"
	MatchIncludes = "includes"
	MatchFuzzy    = "fuzzy"
	MatchRegex    = "regex"
)

// fuzzyPassThreshold is the Jaccard similarity at which a fuzzy match passes.
const fuzzyPassThreshold = 0.8

// MatchGrader compares the completion to each ideal answer with a string
// matching rule. The first matching ideal wins; score is binary.
type MatchGrader struct {
	Mode          string // exact, includes, fuzzy, regex
	CaseSensitive bool
}

func (g *MatchGrader) Name() string {
	return "match"
}

func (g *MatchGrader) Grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult {
	if g == nil {
		return errorResult(s, completion, fmt.Errorf("match: nil grader"))
	}
	if s == nil {
		return errorResult(s, completion, fmt.Errorf("match: nil sample"))
	}

	mode := strings.TrimSpace(g.Mode)
	if mode == "" {
		mode = MatchExact
	}

	got := textmatch.Normalize(completion)

	for _, ideal := range s.Ideal {
		want := textmatch.Normalize(ideal)
		matched, detail := g.matchOne(mode, got, want)
		if matched {
			return newResult(s, completion, 1.0, true,
				fmt.Sprintf("%s match against %q%s", mode, ideal, detail),
				map[string]any{MetaMode: mode})
		}
	}

	return newResult(s, completion, 0.0, false,
		fmt.Sprintf("no ideal answer matched in %s mode", mode),
		map[string]any{MetaMode: mode})
}

func (g *MatchGrader) matchOne(mode, got, want string) (bool, string) {
	switch mode {
	case MatchExact:
		if g.CaseSensitive {
			return got == want, ""
		}
		return strings.EqualFold(got, want), ""
	case MatchIncludes:
		if g.CaseSensitive {
			return strings.Contains(got, want), ""
		}
		return strings.Contains(strings.ToLower(got), strings.ToLower(want)), ""
	case MatchFuzzy:
		sim := textmatch.Jaccard(got, want)
		return sim >= fuzzyPassThreshold, fmt.Sprintf(" (jaccard %.2f)", sim)
	case MatchRegex:
		pattern := want
		if !g.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			// Invalid pattern degrades to a non-match.
			return false, ""
		}
		return re.MatchString(got), ""
	default:
		return false, ""
	}
}
