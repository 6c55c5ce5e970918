package grader

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/llm"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

// Template placeholders substituted into a choice prompt.
const (
	PlaceholderQuestion   = "{question}"
	PlaceholderIdeal      = "{ideal}"
	PlaceholderCompletion = "{completion}"
)

// ChoiceGrader scores a completion by asking a judge model to answer with one
// of an enumerated set of labels, each mapped to a numeric score.
//
// When no configured label appears in the reply the grader falls back to the
// first configured label rather than failing the sample. The fallback is
// recorded in metadata so callers can detect judge-format drift.
type ChoiceGrader struct {
	Provider llm.Provider
	Template string
	Choices  []string
	Scores   map[string]float64
}

func (g *ChoiceGrader) Name() string {
	return "choice"
}

func (g *ChoiceGrader) Grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult {
	if g == nil || g.Provider == nil {
		return errorResult(s, completion, errors.New("choice: nil judge provider"))
	}
	if s == nil {
		return errorResult(s, completion, errors.New("choice: nil sample"))
	}
	if len(g.Choices) == 0 {
		return errorResult(s, completion, errors.New("choice: no choices configured"))
	}

	prompt := g.buildPrompt(s, completion)

	resp, err := g.Provider.Complete(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   256,
		Temperature: 0,
	})
	if err != nil {
		return errorResult(s, completion, fmt.Errorf("choice: judge call: %w", err))
	}
	if resp == nil {
		return errorResult(s, completion, errors.New("choice: nil judge response"))
	}

	raw := strings.TrimSpace(resp.Content)
	label, found := findChoice(raw, g.Choices)
	if !found {
		label = g.Choices[0]
	}
	score := g.Scores[label]

	meta := map[string]any{
		MetaChosenOption: label,
		MetaFallback:     !found,
		"judge_model":    resp.Model,
	}

	reasoning := raw
	if reasoning == "" {
		reasoning = "judge returned an empty reply"
	}
	if !found {
		reasoning = fmt.Sprintf("no configured choice found in judge reply; defaulted to %q. Reply: %s", label, reasoning)
	}

	return newResult(s, completion, score, score >= DefaultPassThreshold, reasoning, meta)
}

func (g *ChoiceGrader) buildPrompt(s *sample.Sample, completion string) string {
	template := g.Template
	if strings.TrimSpace(template) == "" {
		template = "[Question]\n" + PlaceholderQuestion +
			"\n\n[Reference Answer]\n" + PlaceholderIdeal +
			"\n\n[Submitted Answer]\n" + PlaceholderCompletion
	}

	body := strings.NewReplacer(
		PlaceholderQuestion, s.Question(),
		PlaceholderIdeal, strings.Join(s.Ideal, " OR "),
		PlaceholderCompletion, completion,
	).Replace(template)

	return body + "\n\nAnswer with exactly one of: " + strings.Join(g.Choices, ", ")
}

// findChoice returns the configured label occurring earliest in the reply as
// a case-insensitive whole word. Ties at the same position resolve in
// configuration order.
func findChoice(reply string, choices []string) (string, bool) {
	best := -1
	var bestLabel string
	for _, choice := range choices {
		if strings.TrimSpace(choice) == "" {
			continue
		}
		re, err := regexp.Compile(choicePattern(choice))
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(reply)
		if loc == nil {
			continue
		}
		if best < 0 || loc[0] < best {
			best = loc[0]
			bestLabel = choice
		}
	}
	if best < 0 {
		return "", false
	}
	return bestLabel, true
}

// choicePattern anchors a label with word boundaries only where its edge is a
// word character; `\b` next to punctuation (labels like "A+") never matches.
func choicePattern(choice string) string {
	pat := regexp.QuoteMeta(choice)
	if isWordByte(choice[0]) {
		pat = `\b` + pat
	}
	if isWordByte(choice[len(choice)-1]) {
		pat += `\b`
	}
	return `(?i)` + pat
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}
