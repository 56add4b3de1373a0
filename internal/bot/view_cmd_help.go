package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
)

const helpMessage = `/list shows all categories and the ids to enable them with
/active lists all active feeds
/enable followed by category ids or 'all', enables one or more feeds (separated by a whitespace)
/disable followed by category ids or 'all', disables one or more feeds (separated by a whitespace)
/help shows what each command does`

func ViewCmdHelp() botkit.ViewFunc {
	return func(_ context.Context, bot botkit.API, update tgbotapi.Update) error {
		return botkit.Reply(bot, update, helpMessage)
	}
}
