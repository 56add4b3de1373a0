// Package summary shortens article descriptions with a language model so that they fit
// a Telegram photo caption.
package summary

import (
	"context"
	"fmt"

	"github.com/0x0BSoD/ansaNewsBot/internal/config"
)

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// New builds the summarizer selected by cfg. It returns nil when summarization is off.
func New(cfg config.Config) (Summarizer, error) {
	switch cfg.Summarizer {
	case config.SummarizerNone, "":
		return nil, nil
	case config.SummarizerOllama:
		s, err := NewOllamaSummarizer(cfg.AIBaseURL, cfg.AIPrompt, cfg.AIModel, cfg.AITimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SummarizerOpenAI:
		return NewOpenAISummarizer(cfg.AIBaseURL, cfg.AIKey, cfg.AIPrompt, cfg.AIModel, cfg.AITimeout), nil
	default:
		return nil, fmt.Errorf("unknown summarizer %q", cfg.Summarizer)
	}
}
