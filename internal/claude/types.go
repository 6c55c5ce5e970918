package claude

import (
	"net/http"
	"time"
)

// Client holds configuration for Claude API requests.
type Client struct {
	apiKey     string
	authToken  string
	baseURL    string
	httpClient *http.Client
	model      string
	retryMax   int
	retryBase  time.Duration
}

// Message represents a single role/content message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request defines a Claude messages API request payload.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response represents a Claude messages API response.
type Response struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Role       string `json:"role"`
	Text       string `json:"text"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      Usage  `json:"usage"`
	LatencyMs  int64  `json:"latency_ms"`
}

// Usage reports token usage for a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
