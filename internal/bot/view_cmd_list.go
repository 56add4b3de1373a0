package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
)

func ViewCmdList(storage CategoryStorage) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		categories, err := storage.Categories(ctx)
		if err != nil {
			return err
		}

		var sb strings.Builder
		sb.WriteString("To enable feeds, use /enable + [category_id]")
		for _, c := range categories {
			sb.WriteString(fmt.Sprintf("\n%d)%s", c.ID, c.Name))
		}

		return botkit.Reply(bot, update, sb.String())
	}
}
