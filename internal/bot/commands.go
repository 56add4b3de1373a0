package bot

import (
	"context"

	"github.com/0x0BSoD/ansaNewsBot/internal/botkit"
	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type Command int

const (
	CmdList Command = iota
	CmdActive
	CmdEnable
	CmdDisable
	CmdHelp
	CmdStart
)

var commandNames = [...]string{
	CmdList:    "list",
	CmdActive:  "active",
	CmdEnable:  "enable",
	CmdDisable: "disable",
	CmdHelp:    "help",
	CmdStart:   "start",
}

// String returns the command as typed after the slash.
func (c Command) String() string {
	if c < 0 || int(c) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[c]
}

type CategoryStorage interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

type DestinationStorage interface {
	Upsert(ctx context.Context, dst model.Destination) (previous string, renamed bool, err error)
	EnabledCategories(ctx context.Context, destinationID int64) ([]model.Category, error)
	Enable(ctx context.Context, destinationID int64, ids []int64) ([]model.Category, error)
	EnableAll(ctx context.Context, destinationID int64) error
	Disable(ctx context.Context, destinationID int64, ids []int64) ([]model.Category, error)
	DisableAll(ctx context.Context, destinationID int64) error
}

// Views maps every command to its view.
func Views(categories CategoryStorage, destinations DestinationStorage, registrar *Registrar) map[Command]botkit.ViewFunc {
	return map[Command]botkit.ViewFunc{
		CmdList:    ViewCmdList(categories),
		CmdActive:  ViewCmdActive(destinations),
		CmdEnable:  ViewCmdEnable(destinations, registrar),
		CmdDisable: ViewCmdDisable(destinations, registrar),
		CmdHelp:    ViewCmdHelp(),
		CmdStart:   ViewCmdHelp(),
	}
}
