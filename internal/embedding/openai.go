package embedding

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder produces vectors through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds an OpenAIEmbedder from config values.
func NewOpenAIEmbedder(apiKey string, baseURL string, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultEmbeddingModel
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  m,
	}
}

func (e *OpenAIEmbedder) Name() string {
	return "openai"
}

func (e *OpenAIEmbedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e == nil || e.client == nil {
		return nil, errors.New("embedding: openai: nil client")
	}
	if ctx == nil {
		return nil, errors.New("embedding: openai: nil context")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyVector
	}

	src := resp.Data[0].Embedding
	out := make([]float64, len(src))
	for i, f := range src {
		out[i] = float64(f)
	}
	return out, nil
}
