package botkit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	updatesTimeout = 60
	viewTimeout    = 5 * time.Minute
)

// API is the part of the Telegram client views reply through.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UpdatesAPI is the Telegram client together with its long-polling loop.
type UpdatesAPI interface {
	API
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type ViewFunc func(ctx context.Context, bot API, update tgbotapi.Update) error

type Bot struct {
	api      UpdatesAPI
	cmdViews map[string]ViewFunc
	textView ViewFunc
	logger   *slog.Logger
}

func New(api UpdatesAPI, logger *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		cmdViews: make(map[string]ViewFunc),
		logger:   logger,
	}
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	b.cmdViews[cmd] = view
}

// RegisterTextView sets the view handling plain, non-command messages.
func (b *Bot) RegisterTextView(view ViewFunc) {
	b.textView = view
}

// Run processes updates one at a time until ctx is done or the updates channel is closed.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updatesTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			updateCtx, cancel := context.WithTimeout(ctx, viewTimeout)
			b.handleUpdate(updateCtx, update)
			cancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("panic recovered while handling update", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	if update.Message == nil {
		return
	}

	var view ViewFunc
	if update.Message.IsCommand() {
		cmdView, ok := b.cmdViews[update.Message.Command()]
		if !ok {
			return
		}
		view = cmdView
	} else {
		if b.textView == nil || update.Message.Text == "" {
			return
		}
		view = b.textView
	}

	if err := view(ctx, b.api, update); err != nil {
		b.logger.Error("failed to handle update",
			"chat_id", update.Message.Chat.ID,
			"command", update.Message.Command(),
			"err", err,
		)

		if _, err := b.api.Send(tgbotapi.NewMessage(update.Message.Chat.ID, "Internal error, please try again later.")); err != nil {
			b.logger.Error("failed to send error reply", "chat_id", update.Message.Chat.ID, "err", err)
		}
	}
}

// Reply sends a plain text message to the chat the update came from.
func Reply(bot API, update tgbotapi.Update, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, text)); err != nil {
		return fmt.Errorf("reply to %d: %w", update.Message.Chat.ID, err)
	}
	return nil
}
