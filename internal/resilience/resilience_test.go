package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	errUpstream = errors.New("upstream down")
	errClient   = errors.New("bad request")
)

func newBreaker() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		Cooldown:    time.Hour,
		IsFailure:   func(err error) bool { return errors.Is(err, errUpstream) },
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	b := newBreaker()
	ctx := context.Background()
	fail := func(context.Context) error { return errUpstream }

	assert.ErrorIs(t, b.Execute(ctx, fail), errUpstream)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, fail), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	t.Parallel()
	b := newBreaker()
	ctx := context.Background()

	for range 5 {
		assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return errClient }), errClient)
		assert.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return context.Canceled }), context.Canceled)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	t.Parallel()
	b := newBreaker()
	ctx := context.Background()

	assert.Error(t, b.Execute(ctx, func(context.Context) error { return errUpstream }))
	assert.NoError(t, b.Execute(ctx, func(context.Context) error { return nil }))
	assert.Error(t, b.Execute(ctx, func(context.Context) error { return errUpstream }))
	assert.Equal(t, StateClosed, b.State())
}

func TestCircuitState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
