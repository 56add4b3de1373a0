package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

// Registrar registers the chat an update comes from as a destination and keeps its name in sync.
type Registrar struct {
	destinations DestinationStorage
	logger       *slog.Logger
}

func NewRegistrar(destinations DestinationStorage, logger *slog.Logger) *Registrar {
	return &Registrar{destinations: destinations, logger: logger}
}

func (r *Registrar) Register(ctx context.Context, chat *tgbotapi.Chat) error {
	dst := model.Destination{ID: chat.ID, Name: chatName(chat)}

	previous, renamed, err := r.destinations.Upsert(ctx, dst)
	if err != nil {
		return err
	}
	if renamed {
		r.logger.Info("destination renamed", "chat_id", dst.ID, "from", previous, "to", dst.Name)
	}
	return nil
}

// ViewRegister handles plain messages: they only register the chat.
func ViewRegister(registrar *Registrar) botkit.ViewFunc {
	return func(ctx context.Context, _ botkit.API, update tgbotapi.Update) error {
		return registrar.Register(ctx, update.Message.Chat)
	}
}

func chatName(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return chat.UserName
}
