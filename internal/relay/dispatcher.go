// Package relay routes chat events: commands go to their handlers, a pending
// setup consumes the user's next message, and everything else is screened by
// the admission filter and relayed to Wallu.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wallubot/wallu-telegram/internal/admission"
	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/setup"
	"github.com/wallubot/wallu-telegram/internal/wallu"
)

// Callback data carried by inline keyboard buttons.
const (
	CallbackSetupCancel   = "setup_cancel"
	CallbackRemoveConfirm = "remove_confirm"
	CallbackRemoveCancel  = "remove_cancel"
)

// privateChannelName labels one-to-one chats in upstream requests.
const privateChannelName = "private chat"

// Credentials is the per-chat API key store.
type Credentials interface {
	Save(ctx context.Context, chatID int64, apiKey string, actingUserID int64) error
	Get(ctx context.Context, chatID int64) (string, bool, error)
	Delete(ctx context.Context, chatID int64) error
}

// Upstream is the Wallu API.
type Upstream interface {
	OnMessage(ctx context.Context, apiKey string, req *wallu.OnMessageRequest) (*wallu.OnMessageResponse, error)
	ValidateKey(ctx context.Context, apiKey string) error
}

// Inbound is a plain chat message.
type Inbound struct {
	ChatID    int64
	ChatTitle string
	Private   bool
	MessageID int
	SenderID  int64
	// SenderFirstName and SenderUsername label the sender upstream.
	SenderFirstName string
	SenderUsername  string
	Text            string
	SentAt          time.Time
	IsReply         bool
	ReplyToSenderID int64
}

func (in Inbound) admissionMessage() admission.Message {
	return admission.Message{
		ChatID:          in.ChatID,
		MessageID:       in.MessageID,
		SenderID:        in.SenderID,
		Text:            in.Text,
		SentAt:          in.SentAt,
		Private:         in.Private,
		IsReply:         in.IsReply,
		ReplyToSenderID: in.ReplyToSenderID,
	}
}

// Command is a slash command. Args is the text after the command word.
type Command struct {
	ChatID    int64
	Private   bool
	MessageID int
	UserID    int64
	Args      string
}

// Callback is an inline keyboard press.
type Callback struct {
	ID        string
	Data      string
	ChatID    int64
	MessageID int
	UserID    int64
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Platform    Platform
	Credentials Credentials
	Upstream    Upstream
	Sessions    *setup.Registry
	Messages    config.MessagesConfig
	Logger      *slog.Logger
}

// Dispatcher handles every inbound event.
type Dispatcher struct {
	platform Platform
	creds    Credentials
	upstream Upstream
	machine  *setup.Machine
	msgs     config.MessagesConfig
	log      *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	self admission.Identity
}

// NewDispatcher builds a dispatcher and its setup machine.
func NewDispatcher(deps Deps) *Dispatcher {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = setup.NewRegistry()
	}
	d := &Dispatcher{
		platform: deps.Platform,
		creds:    deps.Credentials,
		upstream: deps.Upstream,
		msgs:     deps.Messages,
		log:      log.With("component", "relay"),
		now:      time.Now,
	}
	d.machine = setup.NewMachine(sessions, d, deps.Upstream, deps.Credentials, log)
	return d
}

// WithClock replaces the time source used by admission. Intended for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	d.machine.WithClock(now)
	return d
}

// SetIdentity records the bot's own id and username. It must be called before
// messages are handled.
func (d *Dispatcher) SetIdentity(id admission.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.self = id
}

// Identity returns the bot's own identity.
func (d *Dispatcher) Identity() admission.Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.self
}

// Machine exposes the setup state machine.
func (d *Dispatcher) Machine() *setup.Machine {
	return d.machine
}

// IsAdmin reports whether userID is owner or administrator of chatID. In a
// private chat the user always is.
func (d *Dispatcher) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if chatID == userID {
		return true, nil
	}
	status, err := d.platform.MemberStatus(ctx, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get member status: %w", err)
	}
	return status.Privileged(), nil
}

// HandleMessage processes a non-command message.
func (d *Dispatcher) HandleMessage(ctx context.Context, in Inbound) {
	log := d.log.With("chat_id", in.ChatID, "user_id", in.SenderID, "message_id", in.MessageID)

	if !strings.HasPrefix(in.Text, admission.CommandPrefix) {
		if _, ok := d.machine.Pending(in.SenderID); ok {
			d.submitKey(ctx, log, in)
			return
		}
	}

	self := d.Identity()
	msg := in.admissionMessage()
	if dec, ok := admission.Screen(msg, self); !ok {
		log.DebugContext(ctx, "Message not relayed", "verdict", dec.Verdict.String())
		return
	}

	apiKey, found, err := d.creds.Get(ctx, in.ChatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load chat credential", "error", err)
		if admission.IsMentioned(msg, self) && d.isStaff(ctx, log, in.ChatID, in.SenderID) {
			d.send(ctx, log, in.ChatID, d.msgs.CredentialUnreadable, SendOptions{})
		}
		return
	}

	dec := admission.Evaluate(msg, self, d.now(), found)
	if !dec.Admitted() {
		log.DebugContext(ctx, "Message not relayed", "verdict", dec.Verdict.String())
		return
	}

	if dec.ShowTyping {
		if err := d.platform.SendTyping(ctx, in.ChatID); err != nil {
			log.WarnContext(ctx, "Failed to send typing action", "error", err)
		}
	}

	staff := d.isStaff(ctx, log, in.ChatID, in.SenderID)
	resp, err := d.upstream.OnMessage(ctx, apiKey, d.buildRequest(in, staff, dec.Mentioned))
	if err != nil {
		log.ErrorContext(ctx, "Failed to get reply from Wallu", "error", err)
		d.notifyStaff(ctx, log, in.ChatID, staff && dec.Mentioned)
		return
	}

	reply := resp.Text()
	if reply == "" {
		log.DebugContext(ctx, "Wallu returned no reply")
		return
	}

	if _, err := sendMarkdown(ctx, d.platform, in.ChatID, reply, SendOptions{ReplyTo: in.MessageID}); err != nil {
		log.ErrorContext(ctx, "Failed to deliver reply", "error", err)
		d.notifyStaff(ctx, log, in.ChatID, staff && dec.Mentioned)
		return
	}
	log.InfoContext(ctx, "Answered message", "mentioned", dec.Mentioned)
}

func (d *Dispatcher) buildRequest(in Inbound, staff, mentioned bool) *wallu.OnMessageRequest {
	chatName := in.ChatTitle
	if chatName == "" {
		chatName = privateChannelName
	}
	username := in.SenderFirstName
	if username == "" {
		username = in.SenderUsername
	}
	if username == "" {
		username = "Unknown"
	}
	chatID := strconv.FormatInt(in.ChatID, 10)
	return &wallu.OnMessageRequest{
		Channel: wallu.Channel{ID: chatID, Name: d.msgs.ChannelNamePrefix + chatName},
		User: wallu.User{
			ID:            strconv.FormatInt(in.SenderID, 10),
			Username:      username,
			IsStaffMember: staff,
		},
		Message: wallu.Message{
			ID:             chatID + "-" + strconv.Itoa(in.MessageID),
			IsBotMentioned: mentioned,
			Content:        in.Text,
		},
	}
}

// submitKey consumes in.Text as the pending setup's API key. The message is
// deleted afterwards whatever the outcome.
func (d *Dispatcher) submitKey(ctx context.Context, log *slog.Logger, in Inbound) {
	s, err := d.machine.Submit(ctx, in.SenderID, in.Text)
	switch {
	case err == nil:
		name := d.chatName(ctx, log, s.TargetChatID, s.UserID)
		text := fmt.Sprintf(d.msgs.SetupSuccessFmt, name)
		d.send(ctx, log, s.UserID, text, SendOptions{})
		if s.TargetChatID != s.UserID {
			d.send(ctx, log, s.TargetChatID, text, SendOptions{})
		}
	case errors.Is(err, setup.ErrNoSession):
		log.InfoContext(ctx, "Setup session ended before key was processed")
	default:
		d.send(ctx, log, in.SenderID, d.msgs.SetupFailed, SendOptions{Buttons: d.cancelSetupButtons()})
	}

	if err := d.platform.DeleteMessage(ctx, in.ChatID, in.MessageID); err != nil {
		log.WarnContext(ctx, "Failed to delete API key message", "error", err)
	}
}

// Help sends the help text.
func (d *Dispatcher) Help(ctx context.Context, cmd Command) {
	log := d.commandLog("help", cmd)
	if _, err := sendMarkdown(ctx, d.platform, cmd.ChatID, d.msgs.Help, SendOptions{}); err != nil {
		log.ErrorContext(ctx, "Failed to send help", "error", err)
	}
}

// Setup starts configuration. In a group it posts a deep-link button so the
// key is typed in a private chat instead.
func (d *Dispatcher) Setup(ctx context.Context, cmd Command) {
	log := d.commandLog("setup", cmd)

	if !d.isStaff(ctx, log, cmd.ChatID, cmd.UserID) {
		d.send(ctx, log, cmd.ChatID, d.msgs.SetupAdminOnly, SendOptions{})
		return
	}

	if !cmd.Private {
		buttons := [][]Button{{{
			Text: d.msgs.SetupDeepLinkButton,
			URL:  setup.DeepLinkURL(d.Identity().Username, cmd.ChatID),
		}}}
		d.send(ctx, log, cmd.ChatID, d.msgs.SetupDeepLinkPrompt, SendOptions{Buttons: buttons})
		return
	}

	d.beginSetup(ctx, log, cmd.UserID, cmd.ChatID, cmd.ChatID)
}

// Start handles /start. A setup_<chatID> payload begins setup for that chat.
func (d *Dispatcher) Start(ctx context.Context, cmd Command) {
	log := d.commandLog("start", cmd)

	payload := strings.TrimSpace(cmd.Args)
	if payload == "" || !cmd.Private {
		d.send(ctx, log, cmd.ChatID, d.msgs.Help, SendOptions{})
		return
	}

	target, err := setup.DecodeDeepLink(payload)
	if err != nil {
		log.InfoContext(ctx, "Ignoring invalid start payload", "error", err)
		d.send(ctx, log, cmd.ChatID, d.msgs.SetupInvalidLink, SendOptions{})
		return
	}

	d.beginSetup(ctx, log.With("target_chat_id", target), cmd.UserID, target, cmd.ChatID)
}

func (d *Dispatcher) beginSetup(ctx context.Context, log *slog.Logger, userID, target, replyChat int64) {
	name := d.msgs.PrivateChatName
	if target != userID {
		title, err := d.platform.ChatTitle(ctx, target)
		if err != nil {
			log.ErrorContext(ctx, "Failed to get target chat", "error", err)
			d.send(ctx, log, replyChat, d.msgs.SetupStartFailed, SendOptions{})
			return
		}
		name = title
	}

	if _, err := d.machine.Begin(ctx, userID, target); err != nil {
		if errors.Is(err, setup.ErrNotAdmin) {
			d.send(ctx, log, replyChat, d.msgs.SetupTargetNotAdmin, SendOptions{})
			return
		}
		log.ErrorContext(ctx, "Failed to start setup", "error", err)
		d.send(ctx, log, replyChat, d.msgs.SetupStartFailed, SendOptions{})
		return
	}

	d.send(ctx, log, userID, fmt.Sprintf(d.msgs.SetupPromptFmt, name), SendOptions{Buttons: d.cancelSetupButtons()})
}

// Status reports whether the chat has a working API key.
func (d *Dispatcher) Status(ctx context.Context, cmd Command) {
	log := d.commandLog("status", cmd)

	if !d.isStaff(ctx, log, cmd.ChatID, cmd.UserID) {
		d.send(ctx, log, cmd.ChatID, d.msgs.StatusAdminOnly, SendOptions{})
		return
	}

	apiKey, found, err := d.creds.Get(ctx, cmd.ChatID)
	switch {
	case err != nil:
		log.ErrorContext(ctx, "Failed to load chat credential", "error", err)
		d.send(ctx, log, cmd.ChatID, d.msgs.StatusInvalid, SendOptions{})
	case !found:
		d.send(ctx, log, cmd.ChatID, d.msgs.StatusNotConfigured, SendOptions{})
	default:
		if err := d.upstream.ValidateKey(ctx, apiKey); err != nil {
			log.InfoContext(ctx, "Stored API key failed validation", "error", err)
			d.send(ctx, log, cmd.ChatID, d.msgs.StatusInvalid, SendOptions{})
			return
		}
		d.send(ctx, log, cmd.ChatID, d.msgs.StatusActive, SendOptions{})
	}
}

// Remove asks for confirmation before deleting the chat's configuration.
func (d *Dispatcher) Remove(ctx context.Context, cmd Command) {
	log := d.commandLog("remove", cmd)

	if !d.isStaff(ctx, log, cmd.ChatID, cmd.UserID) {
		d.send(ctx, log, cmd.ChatID, d.msgs.RemoveAdminOnly, SendOptions{})
		return
	}

	buttons := [][]Button{{
		{Text: d.msgs.RemoveConfirmButton, CallbackData: CallbackRemoveConfirm},
		{Text: d.msgs.RemoveCancelButton, CallbackData: CallbackRemoveCancel},
	}}
	d.send(ctx, log, cmd.ChatID, d.msgs.RemovePrompt, SendOptions{Buttons: buttons})
}

// Callback handles inline keyboard presses.
func (d *Dispatcher) Callback(ctx context.Context, cb Callback) {
	log := d.log.With("callback", cb.Data, "chat_id", cb.ChatID, "user_id", cb.UserID)

	if err := d.platform.AnswerCallback(ctx, cb.ID); err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}

	switch cb.Data {
	case CallbackSetupCancel:
		d.machine.Cancel(cb.UserID)
		d.send(ctx, log, cb.UserID, d.msgs.SetupCancelled, SendOptions{})
	case CallbackRemoveConfirm:
		// The prompt is visible to everyone in the chat, so the presser is checked again.
		if !d.isStaff(ctx, log, cb.ChatID, cb.UserID) {
			d.send(ctx, log, cb.ChatID, d.msgs.RemoveAdminOnly, SendOptions{})
			return
		}
		if err := d.creds.Delete(ctx, cb.ChatID); err != nil {
			log.ErrorContext(ctx, "Failed to remove configuration", "error", err)
			d.send(ctx, log, cb.ChatID, d.msgs.RemoveFailed, SendOptions{})
			return
		}
		log.InfoContext(ctx, "Configuration removed")
		d.send(ctx, log, cb.ChatID, d.msgs.RemoveSuccess, SendOptions{})
	case CallbackRemoveCancel:
		d.send(ctx, log, cb.ChatID, d.msgs.RemoveCancelled, SendOptions{})
	default:
		log.WarnContext(ctx, "Unknown callback query")
	}
}

func (d *Dispatcher) cancelSetupButtons() [][]Button {
	return [][]Button{{{Text: d.msgs.SetupCancelButton, CallbackData: CallbackSetupCancel}}}
}

func (d *Dispatcher) chatName(ctx context.Context, log *slog.Logger, chatID, userID int64) string {
	if chatID == userID {
		return d.msgs.PrivateChatName
	}
	title, err := d.platform.ChatTitle(ctx, chatID)
	if err != nil || title == "" {
		log.WarnContext(ctx, "Failed to get chat title", "error", err)
		return strconv.FormatInt(chatID, 10)
	}
	return title
}

// isStaff is IsAdmin with lookup failures counted as not privileged.
func (d *Dispatcher) isStaff(ctx context.Context, log *slog.Logger, chatID, userID int64) bool {
	ok, err := d.IsAdmin(ctx, chatID, userID)
	if err != nil {
		log.WarnContext(ctx, "Failed to check admin status", "error", err)
		return false
	}
	return ok
}

// notifyStaff posts the generic relay error when allowed is true.
func (d *Dispatcher) notifyStaff(ctx context.Context, log *slog.Logger, chatID int64, allowed bool) {
	if allowed {
		d.send(ctx, log, chatID, d.msgs.RelayError, SendOptions{})
	}
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, chatID int64, text string, opts SendOptions) {
	if _, err := d.platform.SendText(ctx, chatID, text, opts); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "target_chat_id", chatID, "error", err)
	}
}

func (d *Dispatcher) commandLog(name string, cmd Command) *slog.Logger {
	return d.log.With("command", name, "chat_id", cmd.ChatID, "user_id", cmd.UserID)
}
