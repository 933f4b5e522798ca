package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []Event
	fail   int
	done   chan struct{}
}

func (c *capturingPublisher) Publish(_ context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail > 0 {
		c.fail--
		return errors.New("broker down")
	}
	c.events = append(c.events, ev)
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	return nil
}

func TestAsync_DeliversInBackground(t *testing.T) {
	inner := &capturingPublisher{done: make(chan struct{})}
	done := inner.done
	a := NewAsync(inner, zap.NewNop())

	ev := Event{Kind: KindLogin, UserID: 7, Email: "kirk@enterprise.io", Revoked: 2, At: time.Now().UTC()}
	require.NoError(t, a.Publish(context.Background(), ev))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}

	inner.mu.Lock()
	defer inner.mu.Unlock()
	require.Len(t, inner.events, 1)
	assert.Equal(t, KindLogin, inner.events[0].Kind)
	assert.Equal(t, int64(7), inner.events[0].UserID)
	assert.Equal(t, 2, inner.events[0].Revoked)
}

func TestAsync_RetriesTransientFailure(t *testing.T) {
	inner := &capturingPublisher{fail: 2, done: make(chan struct{})}
	done := inner.done
	a := NewAsync(inner, zap.NewNop())

	require.NoError(t, a.Publish(context.Background(), Event{Kind: KindRegister, UserID: 1}))

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("event was not delivered after retries")
	}

	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Len(t, inner.events, 1)
}

func TestNop_Publish(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Kind: KindLogout}))
}
