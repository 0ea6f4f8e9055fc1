package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewRemoveHandler returns a handler for /wallu_remove.
func NewRemoveHandler(deps HandlerDeps) bot.HandlerFunc {
	return removeHandler{deps}.Handle
}

type removeHandler struct {
	deps HandlerDeps
}

func (h removeHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "remove")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Remove handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /wallu_remove command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)
	h.deps.Dispatcher.Remove(ctx, commandFromMessage(update.Message))
}
