package relay

import (
	"context"
	"errors"
	"regexp"
)

// Legacy Markdown cannot render links written as [1](<https://...>).
var angleLinkRe = regexp.MustCompile(`\(<(https?://[^)]+)>\)`)

// RewriteLinks turns (<url>) into (url).
func RewriteLinks(text string) string {
	return angleLinkRe.ReplaceAllString(text, "($1)")
}

// sendMarkdown sends text with Markdown enabled and resends it once as plain
// text if the platform rejects the markup.
func sendMarkdown(ctx context.Context, p Platform, chatID int64, text string, opts SendOptions) (int, error) {
	text = RewriteLinks(text)
	opts.Markdown = true
	id, err := p.SendText(ctx, chatID, text, opts)
	if err == nil || !errors.Is(err, ErrFormattingRejected) {
		return id, err
	}
	opts.Markdown = false
	return p.SendText(ctx, chatID, text, opts)
}
