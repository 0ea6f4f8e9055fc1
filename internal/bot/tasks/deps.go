// Package tasks implements scheduled maintenance tasks for the bot.
package tasks

import (
	"log/slog"

	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/database"
	"github.com/wallubot/wallu-telegram/internal/setup"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Setup    *setup.Machine
	Config   *config.Config
}
