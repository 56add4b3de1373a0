package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

const (
	argAll         = "all"
	msgMissingArgs = "At least one argument is needed!"
	msgNoneKnown   = "None of the given ids is a known category, see /list."
)

func ViewCmdEnable(storage DestinationStorage, registrar *Registrar) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID
		if err := registrar.Register(ctx, update.Message.Chat); err != nil {
			return err
		}

		args := strings.Fields(update.Message.CommandArguments())
		if len(args) == 0 {
			return botkit.Reply(bot, update, msgMissingArgs)
		}

		if args[0] == argAll {
			if err := storage.EnableAll(ctx, chatID); err != nil {
				return err
			}
			return botkit.Reply(bot, update, "You are going to receive news from all categories")
		}

		enabled, err := storage.Enable(ctx, chatID, parseIDs(args))
		if err != nil {
			return err
		}
		if len(enabled) == 0 {
			return botkit.Reply(bot, update, msgNoneKnown)
		}

		return botkit.Reply(bot, update, fmt.Sprintf("You are going to receive news from %s", names(enabled)))
	}
}

func ViewCmdDisable(storage DestinationStorage, registrar *Registrar) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID
		if err := registrar.Register(ctx, update.Message.Chat); err != nil {
			return err
		}

		args := strings.Fields(update.Message.CommandArguments())
		if len(args) == 0 {
			return botkit.Reply(bot, update, msgMissingArgs)
		}

		if args[0] == argAll {
			if err := storage.DisableAll(ctx, chatID); err != nil {
				return err
			}
			return botkit.Reply(bot, update, "You are not going to receive news from any category")
		}

		disabled, err := storage.Disable(ctx, chatID, parseIDs(args))
		if err != nil {
			return err
		}
		if len(disabled) == 0 {
			return botkit.Reply(bot, update, msgNoneKnown)
		}

		return botkit.Reply(bot, update, fmt.Sprintf("You are not going to receive news from %s", names(disabled)))
	}
}

// parseIDs keeps the arguments that are category ids; anything else is ignored.
func parseIDs(args []string) []int64 {
	return lo.Uniq(lo.FilterMap(args, func(arg string, _ int) (int64, bool) {
		id, err := strconv.ParseInt(arg, 10, 64)
		return id, err == nil && id > 0
	}))
}

func names(categories []model.Category) string {
	return strings.Join(lo.Map(categories, func(c model.Category, _ int) string { return c.Name }), ", ")
}
