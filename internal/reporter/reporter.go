package reporter

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
)

// Reporter sends short alert messages to the Telegram admin chat.
// It is nil-safe: if adminID is 0 or the receiver is nil, Notify is a no-op.
type Reporter struct {
	bot     botkit.API
	adminID int64
	logger  *slog.Logger
}

func New(bot botkit.API, adminID int64, logger *slog.Logger) *Reporter {
	return &Reporter{bot: bot, adminID: adminID, logger: logger}
}

func (r *Reporter) Notify(msg string) {
	if r == nil || r.adminID == 0 {
		return
	}
	if _, err := r.bot.Send(tgbotapi.NewMessage(r.adminID, "[ansaNewsBot] "+msg)); err != nil {
		r.logger.Error("failed to send admin alert", "admin_chat_id", r.adminID, "err", err)
	}
}
