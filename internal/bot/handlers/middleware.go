// Package handlers contains Telegram bot command and message handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"log/slog"
	"runtime/debug"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover creates a middleware that stops a panicking handler from taking the
// process down. The panic is logged and the next update is processed normally.
func Recover(logger *slog.Logger) tgbot.Middleware {
	log := logger.With("middleware", "recover")
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "Handler panicked", "update_id", update.ID, "panic", r, "stack", string(debug.Stack()))
				}
			}()
			next(ctx, b, update)
		}
	}
}
