package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSetupHandler returns a handler for /wallu_setup.
func NewSetupHandler(deps HandlerDeps) bot.HandlerFunc {
	return setupHandler{deps}.Handle
}

type setupHandler struct {
	deps HandlerDeps
}

func (h setupHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "setup")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Setup handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /wallu_setup command", "chat_id", update.Message.Chat.ID, "user_id", update.Message.From.ID)
	h.deps.Dispatcher.Setup(ctx, commandFromMessage(update.Message))
}
