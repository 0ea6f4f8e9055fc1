package platform

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"

	"github.com/wallubot/wallu-telegram/internal/relay"
)

func TestIsParseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{
			name: "parse entities",
			err:  fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: can't parse entities: Can't find end of the entity starting at byte offset 12"),
			want: true,
		},
		{
			name: "other bad request",
			err:  fmt.Errorf("%w, %s", bot.ErrorBadRequest, "Bad Request: chat not found"),
			want: false,
		},
		{
			name: "forbidden mentioning entities",
			err:  fmt.Errorf("forbidden, %s", "can't parse entities"),
			want: false,
		},
		{name: "plain error", err: errors.New("can't parse entities"), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsParseError(tc.err))
		})
	}
}

func TestMemberStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, relay.MemberOwner, memberStatus(models.ChatMemberTypeOwner))
	assert.Equal(t, relay.MemberAdministrator, memberStatus(models.ChatMemberTypeAdministrator))
	assert.Equal(t, relay.MemberRegular, memberStatus(models.ChatMemberTypeMember))
	assert.Equal(t, relay.MemberBanned, memberStatus(models.ChatMemberTypeBanned))
	assert.True(t, memberStatus(models.ChatMemberTypeOwner).Privileged())
	assert.False(t, memberStatus(models.ChatMemberTypeRestricted).Privileged())
}

func TestKeyboard(t *testing.T) {
	t.Parallel()

	kb := keyboard([][]relay.Button{
		{{Text: "Open", URL: "https://t.me/WalluBot?start=setup_-1"}},
		{{Text: "Yes", CallbackData: "remove_confirm"}, {Text: "No", CallbackData: "remove_cancel"}},
	})
	assert.Equal(t, [][]models.InlineKeyboardButton{
		{{Text: "Open", URL: "https://t.me/WalluBot?start=setup_-1"}},
		{{Text: "Yes", CallbackData: "remove_confirm"}, {Text: "No", CallbackData: "remove_cancel"}},
	}, kb.InlineKeyboard)
}

func TestAdapter_Unbound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := New()

	_, err := a.SendText(ctx, 1, "hi", relay.SendOptions{})
	assert.ErrorIs(t, err, ErrNotBound)
	assert.ErrorIs(t, a.DeleteMessage(ctx, 1, 2), ErrNotBound)
	assert.ErrorIs(t, a.SendTyping(ctx, 1), ErrNotBound)
	assert.ErrorIs(t, a.AnswerCallback(ctx, "x"), ErrNotBound)
	_, err = a.ChatTitle(ctx, 1)
	assert.ErrorIs(t, err, ErrNotBound)
	_, err = a.MemberStatus(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrNotBound)
}
