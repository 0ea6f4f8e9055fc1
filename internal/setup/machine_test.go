package setup_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/setup"
	"github.com/wallubot/wallu-telegram/internal/wallu"
)

var errUnauthorized = errors.New("401")

type fakeAuth struct {
	admins map[[2]int64]bool
	err    error
}

func (f fakeAuth) IsAdmin(_ context.Context, chatID, userID int64) (bool, error) {
	return f.admins[[2]int64{chatID, userID}], f.err
}

type fakeValidator struct {
	bad map[string]bool
}

func (f fakeValidator) ValidateKey(_ context.Context, key string) error {
	if f.bad[key] {
		return errUnauthorized
	}
	return nil
}

type saved struct {
	chatID int64
	key    string
	userID int64
}

type fakeSaver struct {
	mu    sync.Mutex
	saves []saved
	err   error
}

func (f *fakeSaver) Save(_ context.Context, chatID int64, key string, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, saved{chatID, key, userID})
	return nil
}

const (
	alice = int64(42)
	group = int64(-100500)
)

var t0 = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newMachine(saver *fakeSaver) *setup.Machine {
	auth := fakeAuth{admins: map[[2]int64]bool{{group, alice}: true, {alice, alice}: true}}
	val := fakeValidator{bad: map[string]bool{"bad-key": true}}
	return setup.NewMachine(setup.NewRegistry(), auth, val, saver, nil).WithClock(func() time.Time { return t0 })
}

func TestBegin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMachine(&fakeSaver{})

	s, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)
	assert.Equal(t, setup.Session{UserID: alice, State: setup.StateAwaitingAPIKey, TargetChatID: group, StartedAt: t0}, s)

	pending, ok := m.Pending(alice)
	require.True(t, ok)
	assert.Equal(t, group, pending.TargetChatID)
}

func TestBegin_NotAdmin(t *testing.T) {
	t.Parallel()
	m := newMachine(&fakeSaver{})

	_, err := m.Begin(context.Background(), 7, group)
	assert.ErrorIs(t, err, setup.ErrNotAdmin)
	_, ok := m.Pending(7)
	assert.False(t, ok)
}

func TestBegin_AdminCheckFails(t *testing.T) {
	t.Parallel()
	boom := errors.New("chat not found")
	m := setup.NewMachine(setup.NewRegistry(), fakeAuth{err: boom}, fakeValidator{}, &fakeSaver{}, nil)

	_, err := m.Begin(context.Background(), alice, group)
	assert.ErrorIs(t, err, boom)
	_, ok := m.Pending(alice)
	assert.False(t, ok)
}

func TestBegin_ReplacesPreviousSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMachine(&fakeSaver{})

	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)
	_, err = m.Begin(ctx, alice, alice)
	require.NoError(t, err)

	s, ok := m.Pending(alice)
	require.True(t, ok)
	assert.Equal(t, alice, s.TargetChatID)
}

func TestSubmit_InvalidKeyKeepsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	saver := &fakeSaver{}
	m := newMachine(saver)
	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)

	_, err = m.Submit(ctx, alice, "bad-key")
	assert.ErrorIs(t, err, setup.ErrKeyRejected)
	assert.ErrorIs(t, err, errUnauthorized)
	assert.Empty(t, saver.saves)

	s, ok := m.Pending(alice)
	require.True(t, ok)
	assert.Equal(t, setup.StateAwaitingAPIKey, s.State)
}

func TestSubmit_PlausibleKeySavesAndClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	saver := &fakeSaver{}
	m := newMachine(saver)
	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)

	s, err := m.Submit(ctx, alice, "  good-key \n")
	require.NoError(t, err)
	assert.Equal(t, group, s.TargetChatID)
	assert.Equal(t, []saved{{group, "good-key", alice}}, saver.saves)

	_, ok := m.Pending(alice)
	assert.False(t, ok)
}

func TestSubmit_SaveFailureKeepsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMachine(&fakeSaver{err: errors.New("disk full")})
	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)

	_, err = m.Submit(ctx, alice, "good-key")
	assert.ErrorIs(t, err, setup.ErrKeyRejected)
	_, ok := m.Pending(alice)
	assert.True(t, ok)
}

func TestSubmit_EmptyAndNoSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMachine(&fakeSaver{})

	_, err := m.Submit(ctx, alice, "key")
	assert.ErrorIs(t, err, setup.ErrNoSession)

	_, err = m.Begin(ctx, alice, group)
	require.NoError(t, err)
	_, err = m.Submit(ctx, alice, "   ")
	assert.ErrorIs(t, err, setup.ErrKeyRejected)
}

func TestCancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newMachine(&fakeSaver{})

	assert.False(t, m.Cancel(alice))
	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)
	assert.True(t, m.Cancel(alice))
	_, ok := m.Pending(alice)
	assert.False(t, ok)
}

func TestExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := t0
	m := setup.NewMachine(setup.NewRegistry(),
		fakeAuth{admins: map[[2]int64]bool{{group, alice}: true, {group, 7}: true}},
		fakeValidator{}, &fakeSaver{}, nil).WithClock(func() time.Time { return now })

	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)
	now = t0.Add(20 * time.Minute)
	_, err = m.Begin(ctx, 7, group)
	require.NoError(t, err)

	now = t0.Add(31 * time.Minute)
	assert.Equal(t, 1, m.Expire(30*time.Minute))
	_, ok := m.Pending(alice)
	assert.False(t, ok)
	_, ok = m.Pending(7)
	assert.True(t, ok)
}

func TestSubmit_MultiLineKeyRejectedByWalluClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	t.Cleanup(srv.Close)
	client := wallu.NewClient(config.WalluConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)

	saver := &fakeSaver{}
	auth := fakeAuth{admins: map[[2]int64]bool{{group, alice}: true}}
	m := setup.NewMachine(setup.NewRegistry(), auth, client, saver, nil)
	_, err := m.Begin(ctx, alice, group)
	require.NoError(t, err)

	_, err = m.Submit(ctx, alice, "hello everyone\nhow is it going")
	assert.ErrorIs(t, err, setup.ErrKeyRejected)
	assert.ErrorIs(t, err, wallu.ErrInvalidAPIKey)
	assert.Empty(t, saver.saves)
	assert.Zero(t, hits.Load())

	_, ok := m.Pending(alice)
	assert.True(t, ok)
}
