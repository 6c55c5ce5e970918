package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

// Judge modes.
const (
	JudgeClassify    = "classify"
	JudgeCoTClassify = "cot_classify"
)

// JudgeGrader scores a completion with a second model replying free-text.
// The reply is parsed for a `SCORE: <float>` token; in cot_classify mode a
// `REASONING:` block is extracted as well.
type JudgeGrader struct {
	Provider     llm.Provider
	Mode         string // classify or cot_classify
	Instructions string // optional extra grading instructions
}

func (g *JudgeGrader) Name() string {
	return "model_graded"
}

func (g *JudgeGrader) Grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult {
	if g == nil || g.Provider == nil {
		return errorResult(s, completion, errors.New("model_graded: nil judge provider"))
	}
	if s == nil {
		return errorResult(s, completion, errors.New("model_graded: nil sample"))
	}

	mode := strings.TrimSpace(g.Mode)
	if mode == "" {
		mode = JudgeClassify
	}

	prompt := g.buildPrompt(s, completion, mode)

	// Temperature 0 keeps grading deterministic and results reproducible.
	resp, err := g.Provider.Complete(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return errorResult(s, completion, fmt.Errorf("model_graded: judge call: %w", err))
	}
	if resp == nil {
		return errorResult(s, completion, errors.New("model_graded: nil judge response"))
	}

	raw := strings.TrimSpace(resp.Content)
	score, ok := ExtractScore(raw)
	if !ok {
		score = 0
	}

	reasoning := raw
	if mode == JudgeCoTClassify {
		if block := ExtractReasoning(raw); block != "" {
			reasoning = block
		}
	}
	if reasoning == "" {
		reasoning = "judge returned an empty reply"
	}

	meta := map[string]any{
		MetaMode:      mode,
		"judge_model": resp.Model,
	}
	if !ok {
		meta["score_parse_failed"] = true
	}

	return newResult(s, completion, score, score >= DefaultPassThreshold, reasoning, meta)
}

func (g *JudgeGrader) buildPrompt(s *sample.Sample, completion string, mode string) string {
	var sb strings.Builder
	sb.WriteString("You are grading a model's answer against one or more reference answers.\n\n")
	sb.WriteString("[Question]\n")
	sb.WriteString(s.Question())
	sb.WriteString("\n\n[Reference Answer]\n")
	sb.WriteString(strings.Join(s.Ideal, " OR "))
	sb.WriteString("\n\n[Submitted Answer]\n")
	sb.WriteString(completion)
	sb.WriteString("\n\n")

	if inst := strings.TrimSpace(g.Instructions); inst != "" {
		sb.WriteString(inst)
		sb.WriteString("\n\n")
	}

	if mode == JudgeCoTClassify {
		sb.WriteString("First write a line starting with REASONING: explaining step by step how well the submission matches any reference answer. ")
	}
	sb.WriteString("Then output a final line of the form SCORE: <number between 0.0 and 1.0> where 1.0 means the submission fully matches a reference answer.")
	return sb.String()
}
