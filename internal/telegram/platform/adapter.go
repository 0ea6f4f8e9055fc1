// Package platform adapts the go-telegram/bot client to relay.Platform.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wallubot/wallu-telegram/internal/relay"
)

// ErrNotBound is returned when the adapter is used before Bind.
var ErrNotBound = errors.New("telegram bot not bound")

// Adapter implements relay.Platform on top of *bot.Bot. It is created before
// the bot so handlers can be wired first, and bound once the bot exists.
type Adapter struct {
	b atomic.Pointer[bot.Bot]
}

var _ relay.Platform = (*Adapter)(nil)

// New returns an unbound adapter.
func New() *Adapter {
	return &Adapter{}
}

// Bind attaches the bot instance.
func (a *Adapter) Bind(b *bot.Bot) {
	a.b.Store(b)
}

func (a *Adapter) client() (*bot.Bot, error) {
	b := a.b.Load()
	if b == nil {
		return nil, ErrNotBound
	}
	return b, nil
}

// SendText sends a message and returns its id. Markup errors are reported as
// relay.ErrFormattingRejected.
func (a *Adapter) SendText(ctx context.Context, chatID int64, text string, opts relay.SendOptions) (int, error) {
	b, err := a.client()
	if err != nil {
		return 0, err
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if opts.Markdown {
		params.ParseMode = models.ParseModeMarkdownV1
	}
	if opts.ReplyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{
			MessageID:                opts.ReplyTo,
			AllowSendingWithoutReply: true,
		}
	}
	if len(opts.Buttons) > 0 {
		params.ReplyMarkup = keyboard(opts.Buttons)
	}

	msg, err := b.SendMessage(ctx, params)
	if err != nil {
		if opts.Markdown && IsParseError(err) {
			return 0, fmt.Errorf("%w: %v", relay.ErrFormattingRejected, err)
		}
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return msg.ID, nil
}

// DeleteMessage deletes one message.
func (a *Adapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	b, err := a.client()
	if err != nil {
		return err
	}
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ChatTitle returns the chat's title. Private chats have none.
func (a *Adapter) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	b, err := a.client()
	if err != nil {
		return "", err
	}
	chat, err := b.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return "", fmt.Errorf("failed to get chat: %w", err)
	}
	return chat.Title, nil
}

// MemberStatus returns the user's role in the chat.
func (a *Adapter) MemberStatus(ctx context.Context, chatID, userID int64) (relay.MemberStatus, error) {
	b, err := a.client()
	if err != nil {
		return "", err
	}
	member, err := b.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to get chat member: %w", err)
	}
	return memberStatus(member.Type), nil
}

// SendTyping shows the typing indicator.
func (a *Adapter) SendTyping(ctx context.Context, chatID int64) error {
	b, err := a.client()
	if err != nil {
		return err
	}
	if _, err := b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping}); err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query so the client stops its spinner.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string) error {
	b, err := a.client()
	if err != nil {
		return err
	}
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// IsParseError reports whether Telegram rejected a message's entities.
func IsParseError(err error) bool {
	if err == nil || !errors.Is(err, bot.ErrorBadRequest) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") ||
		strings.Contains(msg, "can't parse entity") ||
		strings.Contains(msg, "can't find end of the entity")
}

func keyboard(rows [][]relay.Button) *models.InlineKeyboardMarkup {
	kb := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		out := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			out = append(out, models.InlineKeyboardButton{
				Text:         btn.Text,
				URL:          btn.URL,
				CallbackData: btn.CallbackData,
			})
		}
		kb = append(kb, out)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: kb}
}

func memberStatus(t models.ChatMemberType) relay.MemberStatus {
	switch t {
	case models.ChatMemberTypeOwner:
		return relay.MemberOwner
	case models.ChatMemberTypeAdministrator:
		return relay.MemberAdministrator
	case models.ChatMemberTypeRestricted:
		return relay.MemberRestricted
	case models.ChatMemberTypeLeft:
		return relay.MemberLeft
	case models.ChatMemberTypeBanned:
		return relay.MemberBanned
	default:
		return relay.MemberRegular
	}
}
