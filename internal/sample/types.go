package sample

import "time"

// Chat message roles accepted in a sample's input.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single role/content message in a sample's input.
type ChatMessage struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Sample is one question/reference-answer pair to be evaluated. Ideal holds
// one or more acceptable answers; a completion satisfies the sample by
// matching any one of them unless the grader says otherwise.
type Sample struct {
	Input    []ChatMessage  `json:"input" yaml:"input"`
	Ideal    []string       `json:"ideal" yaml:"ideal"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Question returns the content of the last user message, used when a grading
// prompt needs the original question.
func (s *Sample) Question() string {
	if s == nil {
		return ""
	}
	for i := len(s.Input) - 1; i >= 0; i-- {
		if s.Input[i].Role == RoleUser {
			return s.Input[i].Content
		}
	}
	if len(s.Input) > 0 {
		return s.Input[len(s.Input)-1].Content
	}
	return ""
}

// TokenUsage reports token counts for one model call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult is the text a target model produced for a sample's input.
type CompletionResult struct {
	Content      string      `json:"content"`
	Model        string      `json:"model"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// EvalResult is the graded outcome for one (sample, completion) pair.
// Immutable after creation.
type EvalResult struct {
	SampleID   string         `json:"sample_id"`
	Input      []ChatMessage  `json:"input"`
	Ideal      []string       `json:"ideal"`
	Completion string         `json:"completion"`
	Score      float64        `json:"score"`
	Passed     bool           `json:"passed"`
	Reasoning  string         `json:"reasoning"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// EvalReport aggregates one run's results.
type EvalReport struct {
	EvalName     string         `json:"eval_name"`
	Model        string         `json:"model"`
	TotalSamples int            `json:"total_samples"`
	Correct      int            `json:"correct"`
	Incorrect    int            `json:"incorrect"`
	Score        float64        `json:"score"`
	Results      []EvalResult   `json:"results"`
	RunID        string         `json:"run_id"`
	CreatedAt    time.Time      `json:"created_at"`
	DurationMs   int64          `json:"duration_ms"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
