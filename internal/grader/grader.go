// Package grader implements the grading strategies that turn a (sample,
// completion) pair into a scored EvalResult.
package grader

import (
	"context"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/sample"
)

// DefaultPassThreshold is the score at which a result passes unless the
// grader defines its own rule.
const DefaultPassThreshold = 0.5

// Metadata keys set on EvalResults.
const (
	MetaGradingError = "grading_error"
	MetaChosenOption = "chosen_option"
	MetaFallback     = "choice_fallback"
	MetaSimilarities = "similarities"
	MetaMode         = "mode"
	MetaThreshold    = "threshold"
)

// Grader scores one completion against one sample. Implementations never
// panic and never surface an error to the caller: any internal failure is
// converted into a failed EvalResult with MetaGradingError set and the
// failure description in Reasoning.
type Grader interface {
	Name() string
	Grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult
}

func newResult(s *sample.Sample, completion string, score float64, passed bool, reasoning string, meta map[string]any) *sample.EvalResult {
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	if _, ok := meta[MetaGradingError]; !ok {
		meta[MetaGradingError] = false
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	if strings.TrimSpace(reasoning) == "" {
		reasoning = "no reasoning recorded"
	}

	out := &sample.EvalResult{
		Completion: completion,
		Score:      score,
		Passed:     passed,
		Reasoning:  reasoning,
		Metadata:   meta,
	}
	if s != nil {
		out.SampleID = s.ID()
		out.Input = s.Input
		out.Ideal = s.Ideal
	}
	return out
}

func errorResult(s *sample.Sample, completion string, err error) *sample.EvalResult {
	reasoning := "grading failed"
	if err != nil {
		reasoning = "grading failed: " + err.Error()
	}
	return newResult(s, completion, 0, false, reasoning, map[string]any{
		MetaGradingError: true,
	})
}
