package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(_ string, to State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, to)
}

func (l *stateLog) all() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func testConfig() Config {
	cfg := DefaultConfig("redpanda")
	cfg.FailureThreshold = 3
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxRequests = 1
	return cfg
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	log := &stateLog{}
	cb, err := New(testConfig(), nil, WithStateHook(log.record))
	require.NoError(t, err)

	boom := errors.New("broker down")
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Do(context.Background(), func(context.Context) error { return boom }), boom)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err = cb.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.True(t, IsRejected(err))
	assert.False(t, called)
	assert.Equal(t, []State{StateClosed, StateOpen}, log.all())
	assert.False(t, cb.Health().Healthy)
}

func TestBreaker_RecoversThroughHalfOpen(t *testing.T) {
	log := &stateLog{}
	cb, err := New(testConfig(), nil, WithStateHook(log.record))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_ = cb.Do(context.Background(), func(context.Context) error { return errors.New("x") })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Do(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateClosed, StateOpen, StateHalfOpen, StateClosed}, log.all())
}

func TestBreaker_SuccessKeepsClosed(t *testing.T) {
	cb, err := New(testConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, cb.Do(context.Background(), func(context.Context) error { return nil }))
	h := cb.Health()
	assert.Equal(t, "redpanda", h.Name)
	assert.Equal(t, StateClosed, h.State)
	assert.Equal(t, uint32(1), h.Requests)
	assert.True(t, h.Healthy)
}

func TestState_Value(t *testing.T) {
	assert.Equal(t, 0.0, StateClosed.Value())
	assert.Equal(t, 1.0, StateHalfOpen.Value())
	assert.Equal(t, 2.0, StateOpen.Value())
}
