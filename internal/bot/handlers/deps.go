package handlers

import (
	"log/slog"

	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/relay"
)

// HandlerDeps provides dependencies for Telegram update handlers.
type HandlerDeps struct {
	Logger     *slog.Logger
	Config     *config.Config
	Dispatcher *relay.Dispatcher
}
