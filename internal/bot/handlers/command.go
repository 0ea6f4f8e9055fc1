package handlers

import (
	"slices"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wallubot/wallu-telegram/internal/relay"
)

// parsedCommand is "/name@mention args".
type parsedCommand struct {
	Name    string
	Mention string
	Args    string
}

func parseCommand(text string) (parsedCommand, bool) {
	if !strings.HasPrefix(text, "/") {
		return parsedCommand{}, false
	}
	head, args := text[1:], ""
	if i := strings.IndexAny(head, " \t\n"); i >= 0 {
		head, args = head[:i], head[i+1:]
	}
	name, mention, _ := strings.Cut(head, "@")
	if name == "" {
		return parsedCommand{}, false
	}
	return parsedCommand{
		Name:    strings.ToLower(name),
		Mention: mention,
		Args:    strings.TrimSpace(args),
	}, true
}

// commandMatch matches /name and /name@botusername for any of names.
// Commands addressed to another bot are left to the default handler.
func commandMatch(deps HandlerDeps, names ...string) tgbot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, ok := parseCommand(update.Message.Text)
		if !ok || !slices.Contains(names, cmd.Name) {
			return false
		}
		if cmd.Mention == "" {
			return true
		}
		return strings.EqualFold(cmd.Mention, deps.Dispatcher.Identity().Username)
	}
}

func commandFromMessage(msg *models.Message) relay.Command {
	cmd, _ := parseCommand(msg.Text)
	return relay.Command{
		ChatID:    msg.Chat.ID,
		Private:   msg.Chat.Type == models.ChatTypePrivate,
		MessageID: msg.ID,
		UserID:    msg.From.ID,
		Args:      cmd.Args,
	}
}

func inboundFromMessage(msg *models.Message) relay.Inbound {
	in := relay.Inbound{
		ChatID:          msg.Chat.ID,
		ChatTitle:       msg.Chat.Title,
		Private:         msg.Chat.Type == models.ChatTypePrivate,
		MessageID:       msg.ID,
		SenderID:        msg.From.ID,
		SenderFirstName: msg.From.FirstName,
		SenderUsername:  msg.From.Username,
		Text:            msg.Text,
		SentAt:          time.Unix(int64(msg.Date), 0),
	}
	// In forum topics every message replies to the topic's first message.
	if r := msg.ReplyToMessage; r != nil && !(msg.IsTopicMessage && r.ID == msg.MessageThreadID) {
		in.IsReply = true
		if r.From != nil {
			in.ReplyToSenderID = r.From.ID
		}
	}
	return in
}

func callbackFromQuery(q *models.CallbackQuery) relay.Callback {
	cb := relay.Callback{
		ID:     q.ID,
		Data:   q.Data,
		UserID: q.From.ID,
	}
	switch {
	case q.Message.Message != nil:
		cb.ChatID = q.Message.Message.Chat.ID
		cb.MessageID = q.Message.Message.ID
	case q.Message.InaccessibleMessage != nil:
		cb.ChatID = q.Message.InaccessibleMessage.Chat.ID
		cb.MessageID = q.Message.InaccessibleMessage.MessageID
	default:
		cb.ChatID = q.From.ID
	}
	return cb
}
