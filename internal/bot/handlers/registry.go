package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/wallubot/wallu-telegram/internal/relay"
)

// RegisteredHandler describes a handler and how updates are matched to it.
// When MatchFunc is set it is used instead of Pattern and MatchType.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	MatchFunc   tgbot.MatchFunc
}

// RegisterAllCommands initializes and returns a map of all command and
// callback handlers. Plain messages go to the default handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		Handler:   NewStartHandler(deps),
		MatchFunc: commandMatch(deps, "start"),
	}
	handlers["/wallu_help"] = RegisteredHandler{
		Handler:   NewHelpHandler(deps),
		MatchFunc: commandMatch(deps, "wallu_help", "help"),
	}
	handlers["/wallu_setup"] = RegisteredHandler{
		Handler:   NewSetupHandler(deps),
		MatchFunc: commandMatch(deps, "wallu_setup"),
	}
	handlers["/wallu_status"] = RegisteredHandler{
		Handler:   NewStatusHandler(deps),
		MatchFunc: commandMatch(deps, "wallu_status"),
	}
	handlers["/wallu_remove"] = RegisteredHandler{
		Handler:   NewRemoveHandler(deps),
		MatchFunc: commandMatch(deps, "wallu_remove"),
	}

	callback := NewCallbackHandler(deps)
	for _, data := range []string{relay.CallbackSetupCancel, relay.CallbackRemoveConfirm, relay.CallbackRemoveCancel} {
		handlers["callback:"+data] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     data,
			Handler:     callback,
			MatchType:   tgbot.MatchTypeExact,
		}
	}

	return handlers
}
