package llm

import "context"

// Provider is a chat-completion backend. Implementations must return a
// distinguishable error on timeout rather than hanging past the context
// deadline.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Message is a single role/content message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Messages    []Message
	System      string
	MaxTokens   int
	Temperature float64
	Model       string // optional override of the provider default
}

// Usage reports token counts for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a provider-neutral completion response.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
	LatencyMs    int64
}
