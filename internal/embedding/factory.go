package embedding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/model-eval/internal/config"
)

// FromConfig builds the configured embedder wrapped in the shared cache.
func FromConfig(cfg *config.Config) (*Cached, error) {
	if cfg == nil {
		return nil, errors.New("embedding: nil config")
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Embeddings.Provider))
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := strings.TrimSpace(cfg.Embeddings.APIKey)
		if apiKey == "" {
			apiKey = strings.TrimSpace(cfg.LLM.Providers["openai"].APIKey)
		}
		return NewCached(NewOpenAIEmbedder(apiKey, cfg.Embeddings.BaseURL, cfg.Embeddings.Model)), nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", provider)
	}
}
