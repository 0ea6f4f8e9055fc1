package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMessageHandler returns the default handler. It receives every update no
// command handler matched: plain messages go to the relay, stray callback
// queries are still answered.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	switch {
	case update.CallbackQuery != nil:
		h.deps.Dispatcher.Callback(ctx, callbackFromQuery(update.CallbackQuery))
	case update.Message != nil && update.Message.From != nil:
		h.deps.Dispatcher.HandleMessage(ctx, inboundFromMessage(update.Message))
	default:
		log.DebugContext(ctx, "Ignoring unsupported update", "update_id", update.ID)
	}
}
