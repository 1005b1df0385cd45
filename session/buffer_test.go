package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBufferFlushPreservesOrder(t *testing.T) {
	cb := NewCaptureBuffer(64)

	require.NoError(t, cb.Append([]byte("one")))
	require.NoError(t, cb.Append([]byte("two")))
	require.NoError(t, cb.Append([]byte("three")))

	assert.Equal(t, 3, cb.ChunkCount())
	assert.Equal(t, 11, cb.Size())

	assert.Equal(t, []byte("onetwothree"), cb.Flush())
	assert.True(t, cb.IsEmpty())
	assert.Nil(t, cb.Flush(), "second flush has nothing to return")
}

func TestCaptureBufferRejectsOverflow(t *testing.T) {
	cb := NewCaptureBuffer(4)

	require.NoError(t, cb.Append([]byte("abcd")))
	assert.ErrorIs(t, cb.Append([]byte("e")), ErrBufferFull)

	// Rejected chunk must not be partially retained.
	assert.Equal(t, 4, cb.Size())
	assert.Equal(t, 1, cb.ChunkCount())
}

func TestCaptureBufferClear(t *testing.T) {
	cb := NewCaptureBuffer(16)
	require.NoError(t, cb.Append([]byte("abc")))

	cb.Clear()
	assert.True(t, cb.IsEmpty())
	assert.Equal(t, 0, cb.Size())
}
