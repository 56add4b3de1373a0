package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit/markup"
	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

// Telegram rejects photo captions longer than this, counted on the rendered text.
const captionLimit = 1024

const readMore = "Read more"

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Captioner builds the MarkdownV2 caption of a post, shortening its description to fit
// the caption limit. The summarizer is optional.
type Captioner struct {
	summarizer Summarizer
	logger     *slog.Logger
}

func NewCaptioner(summarizer Summarizer, logger *slog.Logger) *Captioner {
	return &Captioner{summarizer: summarizer, logger: logger}
}

func (c *Captioner) Caption(ctx context.Context, post model.Post) string {
	description := post.Description

	if visibleLength(post.Title, description) > captionLimit && c.summarizer != nil {
		summary, err := c.summarizer.Summarize(ctx, description)
		if err != nil {
			c.logger.Warn("failed to summarize description", "link", post.Link, "err", err)
		} else if summary = strings.TrimSpace(summary); summary != "" {
			description = summary
		}
	}

	if over := visibleLength(post.Title, description) - captionLimit; over > 0 {
		description = truncate(description, utf8.RuneCountInString(description)-over)
	}

	var sb strings.Builder
	if post.Title != "" {
		sb.WriteString(fmt.Sprintf("*%s*\n", markup.EscapeForMarkdown(post.Title)))
	}
	if description != "" && description != post.Title {
		sb.WriteString(markup.EscapeForMarkdown(description))
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("[%s](%s)", readMore, markup.EscapeLinkURL(post.Link)))

	return sb.String()
}

func visibleLength(title, description string) int {
	n := utf8.RuneCountInString(readMore)
	if title != "" {
		n += utf8.RuneCountInString(title) + 1
	}
	if description != "" && description != title {
		n += utf8.RuneCountInString(description) + 1
	}
	return n
}

func truncate(s string, limit int) string {
	const ellipsis = "…"
	if limit <= 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit-1])) + ellipsis
}
