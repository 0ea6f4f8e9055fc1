// Package admission decides whether an inbound chat message is relayed to the
// Wallu API. The decision is a pure function of the message, the bot identity,
// the current time and whether the chat has a credential.
package admission

import (
	"strings"
	"time"
)

// StaleAfter is the maximum message age that is still answered.
const StaleAfter = 5 * time.Minute

// CommandPrefix marks messages routed to command handlers instead of the relay.
const CommandPrefix = "/"

// Verdict is the outcome of admission.
type Verdict int

const (
	// Admit means the message is relayed upstream.
	Admit Verdict = iota
	// DropCommand: text starts with the command prefix.
	DropCommand
	// DropEmpty: no text or only whitespace.
	DropEmpty
	// DropUnmentionedReply: a reply in someone else's thread that does not address the bot.
	DropUnmentionedReply
	// DropNoCredential: the chat has no API key configured.
	DropNoCredential
	// DropStale: older than StaleAfter.
	DropStale
)

func (v Verdict) String() string {
	switch v {
	case Admit:
		return "admit"
	case DropCommand:
		return "drop_command"
	case DropEmpty:
		return "drop_empty"
	case DropUnmentionedReply:
		return "drop_unmentioned_reply"
	case DropNoCredential:
		return "drop_no_credential"
	case DropStale:
		return "drop_stale"
	default:
		return "unknown"
	}
}

// Message is the subset of an inbound chat message the filter looks at.
type Message struct {
	ChatID    int64
	MessageID int
	SenderID  int64
	Text      string
	SentAt    time.Time
	// Private is true for one-to-one conversations with the bot.
	Private bool
	// IsReply is true when the message replies to another message;
	// ReplyToSenderID is then the author of that message (0 if unknown).
	IsReply         bool
	ReplyToSenderID int64
}

// Identity identifies the bot itself.
type Identity struct {
	ID       int64
	Username string
}

// Decision is the single terminal result of evaluating the rules.
type Decision struct {
	Verdict Verdict
	// Mentioned reports whether the message addresses the bot. Private chats always do.
	Mentioned bool
	// ShowTyping is set on Admit when the bot was addressed.
	ShowTyping bool
}

// Admitted reports whether the message should be relayed.
func (d Decision) Admitted() bool {
	return d.Verdict == Admit
}

type facts struct {
	msg           Message
	now           time.Time
	mentioned     bool
	hasCredential bool
}

// rule returns a verdict and true when it decides the message.
type rule func(f facts) (Verdict, bool)

// screenRules do not need the credential lookup; they run first and in this order.
var screenRules = []rule{
	func(f facts) (Verdict, bool) {
		return DropCommand, strings.HasPrefix(f.msg.Text, CommandPrefix)
	},
	func(f facts) (Verdict, bool) {
		return DropEmpty, strings.TrimSpace(f.msg.Text) == ""
	},
	func(f facts) (Verdict, bool) {
		return DropUnmentionedReply, f.msg.IsReply && !f.mentioned
	},
}

// finalRules follow screenRules. The credential check precedes staleness so the
// two causes stay distinguishable in logs.
var finalRules = []rule{
	func(f facts) (Verdict, bool) {
		return DropNoCredential, !f.hasCredential
	},
	func(f facts) (Verdict, bool) {
		return DropStale, f.now.Sub(f.msg.SentAt) > StaleAfter
	},
}

// Screen evaluates only the rules that do not depend on the chat's credential.
// ok is false when one of them dropped the message.
func Screen(msg Message, self Identity) (Decision, bool) {
	f := facts{msg: msg, mentioned: IsMentioned(msg, self)}
	if v, hit := apply(screenRules, f); hit {
		return Decision{Verdict: v, Mentioned: f.mentioned}, false
	}
	return Decision{Verdict: Admit, Mentioned: f.mentioned, ShowTyping: f.mentioned}, true
}

// Evaluate runs every rule top to bottom; the first match wins.
func Evaluate(msg Message, self Identity, now time.Time, hasCredential bool) Decision {
	f := facts{
		msg:           msg,
		now:           now,
		mentioned:     IsMentioned(msg, self),
		hasCredential: hasCredential,
	}
	if v, hit := apply(screenRules, f); hit {
		return Decision{Verdict: v, Mentioned: f.mentioned}
	}
	if v, hit := apply(finalRules, f); hit {
		return Decision{Verdict: v, Mentioned: f.mentioned}
	}
	return Decision{Verdict: Admit, Mentioned: f.mentioned, ShowTyping: f.mentioned}
}

// IsMentioned reports whether msg addresses the bot: a reply to one of the
// bot's messages, text containing @username, or any private-chat message.
func IsMentioned(msg Message, self Identity) bool {
	if msg.Private {
		return true
	}
	if msg.IsReply && self.ID != 0 && msg.ReplyToSenderID == self.ID {
		return true
	}
	if self.Username == "" {
		return false
	}
	return strings.Contains(strings.ToLower(msg.Text), "@"+strings.ToLower(self.Username))
}

func apply(rules []rule, f facts) (Verdict, bool) {
	for _, r := range rules {
		if v, hit := r(f); hit {
			return v, true
		}
	}
	return Admit, false
}
