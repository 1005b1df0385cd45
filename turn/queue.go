package turn

import (
	"context"
	"sync"
)

// Queue is the hand-off point between the transport receive loop (producer)
// and the turn consumption loop (consumer). Push never blocks; Pop waits
// until a message is available or the context is cancelled. FIFO: dequeue
// order equals enqueue order.
//
// Built for a single consumer. Multiple producers are fine.
type Queue struct {
	mu    sync.Mutex
	items []*Message
	wake  chan struct{}
}

// NewQueue creates an empty unbounded queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Push appends a message and wakes the consumer. Never blocks.
func (q *Queue) Push(msg *Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
		// Consumer already has a pending wakeup.
	}
}

// Pop removes and returns the oldest message, waiting for one to arrive if
// the queue is empty. Returns the context error when cancelled while waiting.
func (q *Queue) Pop(ctx context.Context) (*Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
			// Re-check under lock; wakeups can be stale for a single consumer.
		}
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
