package session

import (
	"errors"
	"sync"
)

// ErrBufferFull is returned when the buffer exceeds its maximum size
var ErrBufferFull = errors.New("capture buffer full")

// CaptureBuffer accumulates microphone chunks until the client ends its turn.
// Chunks keep arrival order; Flush concatenates them into one utterance.
type CaptureBuffer struct {
	chunks    [][]byte
	totalSize int
	maxSize   int
	mu        sync.Mutex
}

// NewCaptureBuffer creates a buffer with the specified maximum size in bytes
func NewCaptureBuffer(maxSize int) *CaptureBuffer {
	return &CaptureBuffer{maxSize: maxSize}
}

// MaxSize returns the maximum buffer size
func (cb *CaptureBuffer) MaxSize() int {
	return cb.maxSize
}

// Append adds a microphone chunk to the buffer.
// Returns ErrBufferFull if adding the chunk would exceed maxSize.
func (cb *CaptureBuffer) Append(chunk []byte) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	newSize := cb.totalSize + len(chunk)
	if newSize > cb.maxSize {
		return ErrBufferFull
	}

	cb.chunks = append(cb.chunks, chunk)
	cb.totalSize = newSize
	return nil
}

// Flush concatenates all chunks in arrival order, clears the buffer, and
// returns the complete utterance. Returns nil when nothing is buffered.
func (cb *CaptureBuffer) Flush() []byte {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if len(cb.chunks) == 0 {
		return nil
	}

	result := make([]byte, 0, cb.totalSize)
	for _, chunk := range cb.chunks {
		result = append(result, chunk...)
	}

	cb.chunks = nil
	cb.totalSize = 0
	return result
}

// Clear empties the buffer without returning data
func (cb *CaptureBuffer) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.chunks = nil
	cb.totalSize = 0
}

// Size returns the current total buffered bytes
func (cb *CaptureBuffer) Size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalSize
}

// IsEmpty returns true if no chunks are buffered
func (cb *CaptureBuffer) IsEmpty() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.chunks) == 0
}

// ChunkCount returns the number of chunks in the buffer
func (cb *CaptureBuffer) ChunkCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return len(cb.chunks)
}
