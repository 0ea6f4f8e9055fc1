package setup

import (
	"errors"
	"strconv"
	"strings"
)

// deepLinkPrefix starts the /start payload that carries the target chat id.
const deepLinkPrefix = "setup_"

// ErrInvalidDeepLink is returned for a /start payload that is not a setup link.
var ErrInvalidDeepLink = errors.New("invalid setup deep link")

// EncodeDeepLink returns the /start payload for configuring chatID.
func EncodeDeepLink(chatID int64) string {
	return deepLinkPrefix + strconv.FormatInt(chatID, 10)
}

// DecodeDeepLink extracts the target chat id from a /start payload.
func DecodeDeepLink(payload string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(payload), deepLinkPrefix)
	if !ok || rest == "" {
		return 0, ErrInvalidDeepLink
	}
	chatID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || chatID == 0 {
		return 0, ErrInvalidDeepLink
	}
	return chatID, nil
}

// DeepLinkURL builds the t.me link that opens a private chat with the bot.
func DeepLinkURL(botUsername string, chatID int64) string {
	return "https://t.me/" + botUsername + "?start=" + EncodeDeepLink(chatID)
}
