package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/claude"
)

// ClaudeProvider adapts the Claude messages client to the Provider contract.
type ClaudeProvider struct {
	client *claude.Client
	model  string
}

// NewClaudeProvider builds a ClaudeProvider from config values.
func NewClaudeProvider(apiKey string, baseURL string, model string) *ClaudeProvider {
	opts := make([]claude.Option, 0, 2)
	if v := strings.TrimSpace(baseURL); v != "" {
		opts = append(opts, claude.WithBaseURL(v))
	}
	if v := strings.TrimSpace(model); v != "" {
		opts = append(opts, claude.WithModel(v))
	}
	return &ClaudeProvider{
		client: claude.NewClient(strings.TrimSpace(apiKey), opts...),
		model:  strings.TrimSpace(model),
	}
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

func (p *ClaudeProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("llm: claude: nil client")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}

	msgs := make([]claude.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := strings.TrimSpace(m.Role)
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, claude.Message{
			Role:    role,
			Content: m.Content,
		})
	}

	resp, err := p.client.Complete(ctx, &claude.Request{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   clampMaxTokens(req.MaxTokens),
		System:      req.System,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("llm: claude: nil response")
	}

	return &Response{
		Content:      resp.Text,
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
		LatencyMs: resp.LatencyMs,
	}, nil
}
