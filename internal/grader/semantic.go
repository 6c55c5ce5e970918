package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/embedding"
	"github.com/stellarlinkco/model-eval/internal/sample"
)

// Semantic match modes governing how per-ideal similarities combine.
const (
	SemanticBest      = "best"
	SemanticThreshold = "threshold"
	SemanticAll       = "all"
)

// DefaultSemanticThreshold is the cosine similarity at which a semantic
// comparison passes.
const DefaultSemanticThreshold = 0.8

// SemanticGrader scores a completion by cosine similarity between its
// embedding and each ideal answer's embedding.
type SemanticGrader struct {
	Embedder  embedding.Embedder
	Threshold float64
	Mode      string // best, threshold, all
}

func (g *SemanticGrader) Name() string {
	return "semantic"
}

func (g *SemanticGrader) Grade(ctx context.Context, s *sample.Sample, completion string) *sample.EvalResult {
	if g == nil || g.Embedder == nil {
		return errorResult(s, completion, errors.New("semantic: nil embedder"))
	}
	if s == nil {
		return errorResult(s, completion, errors.New("semantic: nil sample"))
	}
	if len(s.Ideal) == 0 {
		return errorResult(s, completion, errors.New("semantic: sample has no ideal answers"))
	}

	mode := strings.TrimSpace(g.Mode)
	if mode == "" {
		mode = SemanticBest
	}
	threshold := g.Threshold
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}

	got, err := g.Embedder.Embed(ctx, completion)
	if err != nil {
		return errorResult(s, completion, fmt.Errorf("semantic: embed completion: %w", err))
	}

	similarities := make([]float64, 0, len(s.Ideal))
	for _, ideal := range s.Ideal {
		want, err := g.Embedder.Embed(ctx, ideal)
		if err != nil {
			return errorResult(s, completion, fmt.Errorf("semantic: embed ideal %q: %w", ideal, err))
		}
		similarities = append(similarities, embedding.Cosine(got, want))
	}

	var (
		max   float64
		sum   float64
		below int
	)
	for i, sim := range similarities {
		if i == 0 || sim > max {
			max = sim
		}
		sum += sim
		if sim < threshold {
			below++
		}
	}

	var score float64
	var passed bool
	switch mode {
	case SemanticBest:
		score = max
		passed = score >= threshold
	case SemanticThreshold:
		// Same numeric score as best; pass if any ideal clears the bar.
		score = max
		passed = below < len(similarities)
	case SemanticAll:
		score = sum / float64(len(similarities))
		passed = below == 0
	default:
		return errorResult(s, completion, fmt.Errorf("semantic: unknown mode %q", mode))
	}

	meta := map[string]any{
		MetaMode:         mode,
		MetaThreshold:    threshold,
		MetaSimilarities: similarities,
	}
	reasoning := fmt.Sprintf("%s mode: max similarity %.4f across %d ideal answer(s), threshold %.2f", mode, max, len(similarities), threshold)

	return newResult(s, completion, score, passed, reasoning, meta)
}
