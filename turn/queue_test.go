package turn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	first := &Message{Parts: []Part{{Text: "a"}}}
	second := &Message{Parts: []Part{{Text: "b"}}}
	third := &Message{TurnComplete: true}

	q.Push(first)
	q.Push(second)
	q.Push(third)
	assert.Equal(t, 3, q.Len())

	ctx := context.Background()
	for _, want := range []*Message{first, second, third} {
		got, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopWaitsForPush(t *testing.T) {
	q := NewQueue()

	done := make(chan *Message, 1)
	go func() {
		msg, err := q.Pop(context.Background())
		if err != nil {
			done <- nil
			return
		}
		done <- msg
	}()

	// Give the consumer a moment to block on the empty queue.
	time.Sleep(20 * time.Millisecond)
	q.Push(&Message{TurnComplete: true})

	select {
	case msg := <-done:
		require.NotNil(t, msg)
		assert.True(t, msg.TurnComplete)
	case <-time.After(time.Second):
		t.Fatal("consumer never woke up after push")
	}
}

func TestQueuePopCancelled(t *testing.T) {
	q := NewQueue()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	msg, err := q.Pop(ctx)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q := NewQueue()

	// No consumer attached; pushes must still return immediately.
	for i := 0; i < 1000; i++ {
		q.Push(&Message{Parts: []Part{{Text: "x"}}})
	}
	assert.Equal(t, 1000, q.Len())
}
