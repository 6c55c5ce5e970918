package grader

import (
	"regexp"
	"strconv"
	"strings"
)

// Judge-reply parsing is deliberately isolated in pure functions: free-text
// score extraction is the most fragile part of model-graded evaluation.

var (
	scoreRe     = regexp.MustCompile(`(?i)\bSCORE\s*[:=]\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	reasoningRe = regexp.MustCompile(`(?is)\bREASONING\s*:\s*(.*?)(?:\n\s*SCORE\s*[:=]|\z)`)
)

// ExtractScore pulls the first `SCORE: <float>` token out of a judge reply.
// Only values in [0,1] are accepted; anything else reports ok=false and the
// caller defaults to 0.
func ExtractScore(raw string) (float64, bool) {
	m := scoreRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if score < 0 || score > 1 {
		return 0, false
	}
	return score, true
}

// ExtractReasoning pulls the `REASONING:` block preceding the score token.
// Returns "" when no block is present.
func ExtractReasoning(raw string) string {
	m := reasoningRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
