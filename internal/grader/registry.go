package grader

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/embedding"
	"github.com/stellarlinkco/model-eval/internal/llm"
)

// Grader type names accepted in a Spec.
const (
	TypeMatch       = "match"
	TypeModelGraded = "model_graded"
	TypeChoice      = "choice"
	TypeSemantic    = "semantic"
)

// Spec declares which grader to instantiate and its arguments. Mode is
// shared between types: match modes for "match", classify/cot_classify for
// "model_graded", best/threshold/all for "semantic". Immutable for the life
// of a run.
type Spec struct {
	Type string `yaml:"type" json:"type"`
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`

	// match
	CaseSensitive bool `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`

	// model_graded
	Instructions string `yaml:"instructions,omitempty" json:"instructions,omitempty"`

	// choice
	Template string             `yaml:"template,omitempty" json:"template,omitempty"`
	Choices  []string           `yaml:"choices,omitempty" json:"choices,omitempty"`
	Scores   map[string]float64 `yaml:"choice_scores,omitempty" json:"choice_scores,omitempty"`

	// semantic
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Deps carries the external collaborators injected into judge and semantic
// graders.
type Deps struct {
	Judge    llm.Provider
	Embedder embedding.Embedder
}

// Validate checks a spec before any sample is processed. Unknown types and
// malformed arguments are fatal configuration errors.
func (s *Spec) Validate() error {
	if s == nil {
		return errors.New("grader: nil spec")
	}

	switch strings.TrimSpace(s.Type) {
	case TypeMatch:
		switch strings.TrimSpace(s.Mode) {
		case "", MatchExact, MatchIncludes, MatchFuzzy, MatchRegex:
		default:
			return fmt.Errorf("grader: match: unknown mode %q", s.Mode)
		}
	case TypeModelGraded:
		switch strings.TrimSpace(s.Mode) {
		case "", JudgeClassify, JudgeCoTClassify:
		default:
			return fmt.Errorf("grader: model_graded: unknown mode %q", s.Mode)
		}
	case TypeChoice:
		if len(s.Choices) == 0 {
			return errors.New("grader: choice: missing choices")
		}
		seen := make(map[string]struct{}, len(s.Choices))
		for i, c := range s.Choices {
			c = strings.TrimSpace(c)
			if c == "" {
				return fmt.Errorf("grader: choice: choices[%d]: empty label", i)
			}
			if _, ok := seen[strings.ToLower(c)]; ok {
				return fmt.Errorf("grader: choice: duplicate label %q", c)
			}
			seen[strings.ToLower(c)] = struct{}{}

			score, ok := s.Scores[c]
			if !ok {
				return fmt.Errorf("grader: choice: label %q has no score", c)
			}
			if score < 0 || score > 1 {
				return fmt.Errorf("grader: choice: label %q score %v out of [0,1]", c, score)
			}
		}
	case TypeSemantic:
		switch strings.TrimSpace(s.Mode) {
		case "", SemanticBest, SemanticThreshold, SemanticAll:
		default:
			return fmt.Errorf("grader: semantic: unknown mode %q", s.Mode)
		}
		if s.Threshold < 0 || s.Threshold > 1 {
			return fmt.Errorf("grader: semantic: threshold %v out of [0,1]", s.Threshold)
		}
	case "":
		return errors.New("grader: missing type")
	default:
		return fmt.Errorf("grader: unknown type %q", s.Type)
	}
	return nil
}

// Fingerprint derives a stable identifier for the spec's full configuration,
// used to key the result cache.
func (s *Spec) Fingerprint() string {
	if s == nil {
		return ""
	}
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}

// New resolves a spec into a constructed grader, injecting collaborators for
// the judge-based and semantic strategies.
func New(spec *Spec, deps Deps) (Grader, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	switch strings.TrimSpace(spec.Type) {
	case TypeMatch:
		return &MatchGrader{
			Mode:          spec.Mode,
			CaseSensitive: spec.CaseSensitive,
		}, nil
	case TypeModelGraded:
		if deps.Judge == nil {
			return nil, errors.New("grader: model_graded: no judge provider configured")
		}
		return &JudgeGrader{
			Provider:     deps.Judge,
			Mode:         spec.Mode,
			Instructions: spec.Instructions,
		}, nil
	case TypeChoice:
		if deps.Judge == nil {
			return nil, errors.New("grader: choice: no judge provider configured")
		}
		return &ChoiceGrader{
			Provider: deps.Judge,
			Template: spec.Template,
			Choices:  spec.Choices,
			Scores:   spec.Scores,
		}, nil
	case TypeSemantic:
		if deps.Embedder == nil {
			return nil, errors.New("grader: semantic: no embedder configured")
		}
		return &SemanticGrader{
			Embedder:  deps.Embedder,
			Threshold: spec.Threshold,
			Mode:      spec.Mode,
		}, nil
	default:
		return nil, fmt.Errorf("grader: unknown type %q", spec.Type)
	}
}
