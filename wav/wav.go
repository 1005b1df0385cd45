// Package wav frames raw PCM audio into a canonical 44-byte-header WAVE
// container. It is not a codec: samples pass through untouched, the package
// only parses the peer's MIME format descriptor and prepends the header.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Defaults applied when the MIME descriptor omits or mangles a token.
// Gemini Live answers with 16-bit mono PCM at 24kHz unless told otherwise.
const (
	DefaultChannels      = 1
	DefaultSampleRate    = 24000
	DefaultBitsPerSample = 16
)

// Format describes the PCM layout of one turn's audio.
type Format struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// ParseFormat extracts bit depth and sample rate from descriptors like
// "audio/L16;rate=24000". Parsing is deliberately lenient: a missing or
// malformed token falls back to the default instead of raising an error, so
// extended descriptors from the peer never break playback.
func ParseFormat(mimeType string) Format {
	f := Format{
		Channels:      DefaultChannels,
		SampleRate:    DefaultSampleRate,
		BitsPerSample: DefaultBitsPerSample,
	}

	fields := strings.Split(mimeType, ";")

	// Subtype "L<bits>" carries the bit depth (RFC 3190 linear PCM naming).
	if _, subtype, ok := strings.Cut(strings.TrimSpace(fields[0]), "/"); ok {
		if digits, ok := strings.CutPrefix(subtype, "L"); ok {
			if bits, err := strconv.Atoi(digits); err == nil && bits > 0 {
				f.BitsPerSample = bits
			}
		}
	}

	for _, param := range fields[1:] {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "rate") {
			if rate, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && rate > 0 {
				f.SampleRate = rate
			}
		}
		// Unknown parameters are ignored.
	}

	return f
}

// header is the fixed 44-byte canonical PCM WAVE header, little-endian.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data length
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = linear PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data length
}

const headerSize = 44

// Encode concatenates the PCM chunks in order and prefixes them with a WAVE
// header derived from the MIME descriptor. The chunk order must match arrival
// order; reordering corrupts the audio. Pure and deterministic.
func Encode(chunks [][]byte, mimeType string) []byte {
	return EncodeFormat(chunks, ParseFormat(mimeType))
}

// EncodeFormat is Encode with an already-parsed format.
func EncodeFormat(chunks [][]byte, f Format) []byte {
	dataLen := 0
	for _, c := range chunks {
		dataLen += len(c)
	}

	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataLen),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(f.Channels),
		SampleRate:    uint32(f.SampleRate),
		ByteRate:      uint32(f.SampleRate * f.Channels * f.BitsPerSample / 8),
		BlockAlign:    uint16(f.Channels * f.BitsPerSample / 8),
		BitsPerSample: uint16(f.BitsPerSample),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataLen),
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataLen))
	// binary.Write on a fixed-size struct cannot fail against a bytes.Buffer.
	_ = binary.Write(buf, binary.LittleEndian, h)
	for _, c := range chunks {
		buf.Write(c)
	}
	return buf.Bytes()
}

// Info is the format metadata read back out of an encoded WAVE blob.
type Info struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataLength    int
}

// ReadInfo parses the header of a canonical PCM WAVE blob. Unlike encoding,
// reading is strict: consumers feed us our own output, so a malformed header
// is a real fault.
func ReadInfo(data []byte) (*Info, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wav data too short: %d bytes", len(data))
	}

	var h header
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to read wav header: %w", err)
	}

	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE blob")
	}
	if string(h.Subchunk1ID[:]) != "fmt " || string(h.Subchunk2ID[:]) != "data" {
		return nil, fmt.Errorf("missing fmt/data chunks")
	}
	if h.AudioFormat != 1 {
		return nil, fmt.Errorf("unsupported audio format %d, want linear PCM", h.AudioFormat)
	}

	return &Info{
		Channels:      int(h.NumChannels),
		SampleRate:    int(h.SampleRate),
		BitsPerSample: int(h.BitsPerSample),
		DataLength:    int(h.Subchunk2Size),
	}, nil
}

// Data returns the raw PCM payload of a canonical WAVE blob.
func Data(data []byte) ([]byte, error) {
	info, err := ReadInfo(data)
	if err != nil {
		return nil, err
	}
	if len(data)-headerSize < info.DataLength {
		return nil, fmt.Errorf("truncated wav: header claims %d data bytes, have %d", info.DataLength, len(data)-headerSize)
	}
	return data[headerSize : headerSize+info.DataLength], nil
}
