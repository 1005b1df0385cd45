package wav

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatDefaults(t *testing.T) {
	f := ParseFormat("")
	assert.Equal(t, 1, f.Channels)
	assert.Equal(t, 24000, f.SampleRate)
	assert.Equal(t, 16, f.BitsPerSample)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		want     Format
	}{
		{
			name:     "gemini live default",
			mimeType: "audio/L16;rate=24000",
			want:     Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16},
		},
		{
			name:     "narrowband",
			mimeType: "audio/L8;rate=8000",
			want:     Format{Channels: 1, SampleRate: 8000, BitsPerSample: 8},
		},
		{
			name:     "missing rate falls back to 24000",
			mimeType: "audio/L16",
			want:     Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16},
		},
		{
			name:     "malformed rate keeps default",
			mimeType: "audio/L16;rate=fast",
			want:     Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16},
		},
		{
			name:     "non-linear subtype keeps default depth",
			mimeType: "audio/pcm;rate=16000",
			want:     Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16},
		},
		{
			name:     "unknown parameters ignored",
			mimeType: "audio/L24;rate=48000;codec=raw;x=y",
			want:     Format{Channels: 1, SampleRate: 48000, BitsPerSample: 24},
		},
		{
			name:     "whitespace tolerated",
			mimeType: "audio/L16; rate = 16000",
			want:     Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16},
		},
		{
			name:     "garbage descriptor yields all defaults",
			mimeType: "not a mime type at all",
			want:     Format{Channels: 1, SampleRate: 24000, BitsPerSample: 16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.mimeType))
		})
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	// Two decoded bytes at 16kHz/16-bit mono: 46 bytes total.
	out := Encode([][]byte{[]byte("AB")}, "audio/L16;rate=16000")
	require.Len(t, out, 46)

	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, uint32(36+2), binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, uint32(16), binary.LittleEndian.Uint32(out[16:20]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[20:22]), "audio format must be linear PCM")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]), "channels")
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(out[24:28]), "sample rate")
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(out[28:32]), "byte rate")
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(out[32:34]), "block align")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(out[34:36]), "bits per sample")
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(out[40:44]))
	assert.Equal(t, []byte("AB"), out[44:])
}

func TestEncodeConcatenatesChunksInOrder(t *testing.T) {
	chunks := [][]byte{[]byte("abc"), []byte("defgh")}
	out := Encode(chunks, "audio/L8;rate=8000")
	require.Len(t, out, 52)

	assert.Equal(t, uint16(8), binary.LittleEndian.Uint16(out[34:36]))
	assert.Equal(t, uint32(8000), binary.LittleEndian.Uint32(out[28:32]), "byte rate for 8-bit mono equals sample rate")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[32:34]), "block align")
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(out[40:44]))
	assert.Equal(t, []byte("abcdefgh"), out[44:])
}

func TestEncodeDeterministic(t *testing.T) {
	chunks := [][]byte{{1, 2, 3}, {4, 5}}
	first := Encode(chunks, "audio/L16;rate=24000")
	second := Encode(chunks, "audio/L16;rate=24000")
	assert.True(t, bytes.Equal(first, second))
}

func TestEncodeEmptyChunks(t *testing.T) {
	out := Encode(nil, "audio/L16;rate=24000")
	require.Len(t, out, 44)
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(out[4:8]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(out[40:44]))
}

func TestRoundTrip(t *testing.T) {
	pcm := [][]byte{{0, 1, 2, 3}, {4, 5, 6, 7, 8, 9}}
	out := Encode(pcm, "audio/L24;rate=48000")

	info, err := ReadInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 48000, info.SampleRate)
	assert.Equal(t, 24, info.BitsPerSample)
	assert.Equal(t, 10, info.DataLength)

	data, err := Data(out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, data)
}

func TestReadInfoRejectsGarbage(t *testing.T) {
	_, err := ReadInfo([]byte("too short"))
	assert.Error(t, err)

	blob := Encode([][]byte{{1, 2}}, "audio/L16")
	blob[0] = 'X'
	_, err = ReadInfo(blob)
	assert.Error(t, err)
}
