package notifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrUnauthorized = errors.New("destination unauthorized")
	ErrTimeout      = errors.New("transport timeout")
	ErrBadRequest   = errors.New("bad request")
	ErrRetryAfter   = errors.New("rate limited")
)

// RetryAfterError reports that the transport throttled the destination.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.After)
}

func (e *RetryAfterError) Is(target error) bool {
	return target == ErrRetryAfter
}

type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers posts as photos with a MarkdownV2 caption.
type TelegramSender struct {
	bot BotAPI
}

func NewTelegramSender(bot BotAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

func (s *TelegramSender) SendPhoto(ctx context.Context, chatID int64, caption, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2

	_, err := s.bot.Send(photo)
	return classify(err)
}

// classify maps Telegram failures onto the transport error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		switch {
		case tgErr.RetryAfter > 0:
			return &RetryAfterError{After: time.Duration(tgErr.RetryAfter) * time.Second}
		case tgErr.Code == http.StatusTooManyRequests:
			return &RetryAfterError{}
		case tgErr.Code == http.StatusUnauthorized, tgErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrUnauthorized, tgErr.Message)
		case tgErr.Code == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ErrBadRequest, tgErr.Message)
		}
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return err
}
