package summary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaSummarizer shortens texts with a local Ollama model. Requests are serialized since
// a local model serves one generation at a time.
type OllamaSummarizer struct {
	client  *api.Client
	prompt  string
	model   string
	timeout time.Duration
	mu      sync.Mutex
}

// NewOllamaSummarizer accepts either a bare host:port or a full URL as baseURL.
func NewOllamaSummarizer(baseURL, prompt, model string, timeout time.Duration) (*OllamaSummarizer, error) {
	base, err := ollamaURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &OllamaSummarizer{
		client:  api.NewClient(base, &http.Client{}),
		prompt:  prompt,
		model:   model,
		timeout: timeout,
	}, nil
}

func (o *OllamaSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	req := &api.GenerateRequest{
		Model:  o.model,
		System: o.prompt,
		Prompt: text,
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}

func ollamaURL(baseURL string) (*url.URL, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ollama base url is empty")
	}
	if !strings.Contains(baseURL, "://") {
		return &url.URL{Scheme: "http", Host: baseURL, Path: "/"}, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama base url: %w", err)
	}
	return u, nil
}
