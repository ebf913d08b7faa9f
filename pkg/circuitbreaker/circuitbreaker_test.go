package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(cfg Config) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker(cfg)
	cb.now = c.now
	cb.lastStateTime = c.t
	return cb, c
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("gemini")
	cfg.FailureThreshold = 2
	cb, _ := newTestBreaker(cfg)

	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return errBoom }), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called, "fn must not run while open")
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	cfg := DefaultConfig("openai")
	cfg.FailureThreshold = 1
	cfg.SuccessThreshold = 2
	cfg.Timeout = time.Minute

	var transitions []string
	cfg.OnStateChange = func(name string, from, to State) {
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	}
	cb, clk := newTestBreaker(cfg)

	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, StateOpen, cb.GetState())

	clk.t = clk.t.Add(time.Minute)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.GetState())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())

	assert.Equal(t, []string{
		"openai:closed->open",
		"openai:open->half-open",
		"openai:half-open->closed",
	}, transitions)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	cfg := DefaultConfig("x")
	cfg.FailureThreshold = 1
	cfg.Timeout = time.Second
	cb, clk := newTestBreaker(cfg)

	_ = cb.Execute(func() error { return errBoom })
	clk.t = clk.t.Add(time.Second)
	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestBreaker_IsFailureFilter(t *testing.T) {
	cfg := DefaultConfig("x")
	cfg.FailureThreshold = 1
	cfg.IsFailure = func(err error) bool { return !errors.Is(err, errBoom) }
	cb, _ := newTestBreaker(cfg)

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("x")
	assert.Equal(t, "x", cfg.Name)
	assert.Equal(t, 5, cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Nil(t, cfg.IsFailure, "every error counts unless a filter is set")
}
