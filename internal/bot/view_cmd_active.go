package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

func ViewCmdActive(storage DestinationStorage) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		categories, err := storage.EnabledCategories(ctx, update.Message.Chat.ID)
		if err != nil {
			return err
		}

		if len(categories) == 0 {
			return botkit.Reply(bot, update, "No active feeds, use /list to see the categories.")
		}

		rows := lo.Map(categories, func(c model.Category, _ int) string {
			return fmt.Sprintf("%d) %s", c.ID, c.Name)
		})

		return botkit.Reply(bot, update, "Active feeds:\n"+strings.Join(rows, "\n"))
	}
}
