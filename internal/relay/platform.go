package relay

import (
	"context"
	"errors"
)

// ErrFormattingRejected is returned by Platform.SendText when the chat platform
// refused the message because of its markup.
var ErrFormattingRejected = errors.New("message formatting rejected")

// MemberStatus is a user's role in a chat.
type MemberStatus string

const (
	MemberOwner         MemberStatus = "owner"
	MemberAdministrator MemberStatus = "administrator"
	MemberRegular       MemberStatus = "member"
	MemberRestricted    MemberStatus = "restricted"
	MemberLeft          MemberStatus = "left"
	MemberBanned        MemberStatus = "banned"
)

// Privileged reports whether the status grants configuration rights.
func (s MemberStatus) Privileged() bool {
	return s == MemberOwner || s == MemberAdministrator
}

// Button is an inline keyboard button. Exactly one of URL and CallbackData is set.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// SendOptions tunes an outgoing message.
type SendOptions struct {
	// Markdown enables the platform's legacy Markdown parse mode.
	Markdown bool
	// ReplyTo threads the message under this message id when non-zero.
	ReplyTo int
	// Buttons is an inline keyboard, one slice per row.
	Buttons [][]Button
}

// Platform is the chat platform the dispatcher talks to.
type Platform interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	ChatTitle(ctx context.Context, chatID int64) (string, error)
	MemberStatus(ctx context.Context, chatID, userID int64) (MemberStatus, error)
	SendTyping(ctx context.Context, chatID int64) error
	AnswerCallback(ctx context.Context, callbackID string) error
}
