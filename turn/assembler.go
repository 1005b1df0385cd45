package turn

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"

	"voxbridge/wav"
)

// ErrTurnActive is returned when Run is called while a turn is already being
// consumed. Overlapping turns would interleave two responses into one buffer.
var ErrTurnActive = errors.New("turn already in progress")

// Result is the output of one fully assembled turn.
type Result struct {
	Transcript string
	Audio      []byte // complete WAV blob, nil when the turn carried no audio
}

// Assembler drains messages from a queue one at a time and folds their parts
// into per-turn state. State lives only inside Run: nothing leaks between
// turns, and an abandoned turn leaves no residue.
type Assembler struct {
	queue *Queue

	// OnTranscript receives the full transcript so far after every text part,
	// so the UI can render partial text before the turn ends. Called from the
	// Run goroutine; must not block for long.
	OnTranscript func(transcript string)

	// OnAudio receives the turn's complete WAV blob, when the turn had audio.
	OnAudio func(wavBlob []byte)

	mu     sync.Mutex
	active bool
}

// NewAssembler creates an assembler consuming from q.
func NewAssembler(q *Queue) *Assembler {
	return &Assembler{queue: q}
}

// Active reports whether a turn is currently being consumed.
func (a *Assembler) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Run consumes exactly one turn: it dequeues messages until one carries the
// turn-complete flag, appending text parts to the transcript (notifying
// OnTranscript per fragment) and accumulating decoded audio chunks. On
// completion the chunks are framed into a single WAV blob using the MIME
// type of the turn's first audio part.
//
// Only one Run may be in flight per assembler; a second call returns
// ErrTurnActive. Cancelling ctx abandons the turn: buffered text and audio
// are discarded and the context error is returned.
func (a *Assembler) Run(ctx context.Context) (*Result, error) {
	a.mu.Lock()
	if a.active {
		a.mu.Unlock()
		return nil, ErrTurnActive
	}
	a.active = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.active = false
		a.mu.Unlock()
	}()

	var (
		transcript strings.Builder
		chunks     [][]byte
		mimeType   string
	)

	for {
		msg, err := a.queue.Pop(ctx)
		if err != nil {
			return nil, err
		}

		for _, part := range msg.Parts {
			if part.Text != "" {
				transcript.WriteString(part.Text)
				if a.OnTranscript != nil {
					a.OnTranscript(transcript.String())
				}
			}

			if part.Audio != nil {
				if part.Audio.Data == "" {
					continue
				}
				raw, err := base64.StdEncoding.DecodeString(part.Audio.Data)
				if err != nil {
					log.Printf("⚠️ Dropping undecodable audio chunk: %v", err)
					continue
				}
				chunks = append(chunks, raw)
				if mimeType == "" {
					// First chunk's descriptor governs the whole turn.
					mimeType = part.Audio.MIMEType
				}
			}
		}

		// Completion is independent of part presence: a bare turn-complete
		// message still terminates the turn.
		if msg.TurnComplete {
			break
		}
	}

	res := &Result{Transcript: transcript.String()}
	if len(chunks) > 0 && mimeType != "" {
		res.Audio = wav.Encode(chunks, mimeType)
		if a.OnAudio != nil {
			a.OnAudio(res.Audio)
		}
	}
	return res, nil
}
