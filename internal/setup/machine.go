package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrNotAdmin is returned when the user may not configure the target chat.
	ErrNotAdmin = errors.New("user is not an administrator of the target chat")
	// ErrNoSession is returned by Submit when the user has no flow in progress.
	ErrNoSession = errors.New("no setup in progress")
	// ErrKeyRejected is returned when the candidate key fails validation or
	// cannot be saved. The session stays active so the user can retry.
	ErrKeyRejected = errors.New("api key rejected")
)

// Authorizer reports whether userID holds owner or administrator rights in chatID.
type Authorizer interface {
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// KeyValidator checks a candidate key against the upstream API.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) error
}

// CredentialSaver persists a validated key for a chat.
type CredentialSaver interface {
	Save(ctx context.Context, chatID int64, apiKey string, actingUserID int64) error
}

// Machine drives the setup flow for every user.
type Machine struct {
	sessions  *Registry
	auth      Authorizer
	validator KeyValidator
	saver     CredentialSaver
	log       *slog.Logger
	now       func() time.Time
}

// NewMachine wires a setup machine over an in-memory registry.
func NewMachine(sessions *Registry, auth Authorizer, validator KeyValidator, saver CredentialSaver, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		sessions:  sessions,
		auth:      auth,
		validator: validator,
		saver:     saver,
		log:       log.With("component", "setup"),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Begin starts a flow for userID targeting targetChatID. Admin rights are
// checked every time, including for deep links, since those can be forwarded.
// On rejection no session is created and any previous session is kept.
func (m *Machine) Begin(ctx context.Context, userID, targetChatID int64) (Session, error) {
	ok, err := m.auth.IsAdmin(ctx, targetChatID, userID)
	if err != nil {
		return Session{}, fmt.Errorf("failed to check admin rights in chat %d: %w", targetChatID, err)
	}
	if !ok {
		return Session{}, ErrNotAdmin
	}

	s := Session{
		UserID:       userID,
		State:        StateAwaitingAPIKey,
		TargetChatID: targetChatID,
		StartedAt:    m.now(),
	}
	m.sessions.Put(s)
	m.log.InfoContext(ctx, "Setup started", "user_id", userID, "target_chat_id", targetChatID)
	return s, nil
}

// Submit treats candidate as the API key for the user's pending flow. On
// success the key is saved and the session is cleared. On ErrKeyRejected the
// session is kept.
func (m *Machine) Submit(ctx context.Context, userID int64, candidate string) (Session, error) {
	s, ok := m.Pending(userID)
	if !ok {
		return Session{}, ErrNoSession
	}
	log := m.log.With("user_id", userID, "target_chat_id", s.TargetChatID)

	key := strings.TrimSpace(candidate)
	if key == "" {
		return s, fmt.Errorf("%w: empty key", ErrKeyRejected)
	}

	if err := m.validator.ValidateKey(ctx, key); err != nil {
		log.InfoContext(ctx, "Candidate API key failed validation", "error", err)
		return s, fmt.Errorf("%w: %w", ErrKeyRejected, err)
	}

	if err := m.saver.Save(ctx, s.TargetChatID, key, userID); err != nil {
		log.ErrorContext(ctx, "Failed to save API key", "error", err)
		return s, fmt.Errorf("%w: %w", ErrKeyRejected, err)
	}

	m.sessions.Delete(userID)
	log.InfoContext(ctx, "Setup completed")
	return s, nil
}

// Cancel ends the user's flow. It reports whether one was in progress.
func (m *Machine) Cancel(userID int64) bool {
	return m.sessions.Delete(userID)
}

// Pending returns the user's active session, if any.
func (m *Machine) Pending(userID int64) (Session, bool) {
	s, ok := m.sessions.Get(userID)
	if !ok || s.State != StateAwaitingAPIKey {
		return Session{}, false
	}
	return s, true
}

// Expire drops sessions older than ttl and returns how many were removed.
func (m *Machine) Expire(ttl time.Duration) int {
	return m.sessions.Sweep(m.now().Add(-ttl))
}

// Active returns the number of flows in progress.
func (m *Machine) Active() int {
	return m.sessions.Len()
}
