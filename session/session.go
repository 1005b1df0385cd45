package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"voxbridge/config"
	"voxbridge/live"
	"voxbridge/messages"
	"voxbridge/turn"
)

const (
	writeBufferSize = 256
	writeTimeout    = 10 * time.Second
)

// ClientSession represents a single user's connection: one WebSocket to the
// client, one Live connection to the model, and the turn machinery between
// them. The session owns its pending queue and assembler; nothing about a
// turn survives the session.
type ClientSession struct {
	ID           string
	ClientConn   *websocket.Conn
	Live         *live.Client
	Capture      *CaptureBuffer // outbound microphone chunks awaiting end_turn
	CreatedAt    time.Time
	LastActivity time.Time

	queue     *turn.Queue
	assembler *turn.Assembler
	history   *TranscriptLog

	// Use channels for non-blocking writes
	writeChan chan any
	turnKick  chan struct{}

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClientSession creates a session with a connected Live session.
func NewClientSession(ctx context.Context, id string, clientConn *websocket.Conn, cfg *config.Config, history *TranscriptLog) (*ClientSession, error) {
	client, err := live.NewClient(ctx, cfg.GeminiAPIKey, cfg.LiveModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create live client: %w", err)
	}

	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	if err := client.Setup(ctx, prompt); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to setup live session: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())

	clientConn.SetReadLimit(512 * 1024) // 512KB max message
	clientConn.EnableWriteCompression(true)
	clientConn.SetCompressionLevel(6)

	queue := turn.NewQueue()
	session := &ClientSession{
		ID:           id,
		ClientConn:   clientConn,
		Live:         client,
		Capture:      NewCaptureBuffer(cfg.MaxBufferSize),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
		queue:        queue,
		assembler:    turn.NewAssembler(queue),
		history:      history,
		writeChan:    make(chan any, writeBufferSize),
		turnKick:     make(chan struct{}, 1),
		CloseChan:    make(chan struct{}),
		ctx:          sessionCtx,
		cancel:       cancel,
	}

	return session, nil
}

// Start begins the bidirectional message handling.
func (cs *ClientSession) Start() {
	go cs.writePump()
	cs.setupLiveCallbacks()
	cs.Live.StartReceiving(cs.ctx)
	cs.queueMessage(messages.NewStatusMessage(cs.ID, "connected", "Session established"))
	go cs.runTurnLoop()
	go cs.handleClientMessages()
}

// setupLiveCallbacks wires the Live transport into the pending queue and the
// assembler's incremental output into the client connection.
func (cs *ClientSession) setupLiveCallbacks() {
	cs.Live.OnMessage = func(msg *turn.Message) {
		cs.queue.Push(msg)
		cs.kickTurnLoop()
	}

	cs.Live.OnError = func(err error) {
		log.Printf("❌ [%s] Live error: %v", cs.ID[:8], err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeLiveError, err.Error()))
		// Transport failure is terminal: closing cancels the session context,
		// which abandons any in-flight turn instead of hanging on a fragment
		// that will never arrive.
		cs.Close()
	}

	cs.assembler.OnTranscript = func(transcript string) {
		cs.queueMessage(messages.NewTranscriptMessage(cs.ID, transcript))
	}
}

// kickTurnLoop nudges the turn loop; a pending nudge is enough.
func (cs *ClientSession) kickTurnLoop() {
	select {
	case cs.turnKick <- struct{}{}:
	default:
	}
}

// runTurnLoop serializes turn consumption: whenever the session is idle and
// the queue is non-empty, exactly one turn is assembled to completion. Turns
// never run concurrently; messages for the next turn stay queued until the
// current one finishes.
func (cs *ClientSession) runTurnLoop() {
	for {
		select {
		case <-cs.CloseChan:
			return
		case <-cs.turnKick:
		}

		for cs.queue.Len() > 0 {
			res, err := cs.assembler.Run(cs.ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("❌ [%s] Turn assembly error: %v", cs.ID[:8], err)
				return
			}

			log.Printf("✅ [%s] Turn complete: %d chars transcript, %d bytes audio",
				cs.ID[:8], len(res.Transcript), len(res.Audio))

			if len(res.Audio) > 0 {
				encoded := base64.StdEncoding.EncodeToString(res.Audio)
				cs.queueMessage(messages.NewTurnAudioMessage(cs.ID, encoded))
			}
			cs.queueMessage(messages.NewStatusMessage(cs.ID, "turn_complete", ""))

			cs.history.Append(cs.ctx, cs.ID, res.Transcript)
		}
	}
}

// writePump handles all outgoing messages in a single goroutine
func (cs *ClientSession) writePump() {
	defer func() {
		// Send close message before exiting
		cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
		cs.ClientConn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
	}()

	for {
		select {
		case <-cs.CloseChan:
			return
		case msg, ok := <-cs.writeChan:
			if !ok {
				// Channel closed, exit gracefully
				return
			}
			if !cs.writeMessage(msg) {
				return
			}

			// Drain whatever queued up behind the first message.
			n := len(cs.writeChan)
			for i := 0; i < n; i++ {
				select {
				case msg, ok := <-cs.writeChan:
					if !ok {
						return
					}
					if !cs.writeMessage(msg) {
						return
					}
				default:
				}
			}
		}
	}
}

func (cs *ClientSession) writeMessage(msg any) bool {
	data, err := sonic.Marshal(msg)
	if err != nil {
		log.Printf("❌ [%s] Failed to marshal outbound message: %v", cs.ID[:8], err)
		return true
	}
	cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return cs.ClientConn.WriteMessage(websocket.TextMessage, data) == nil
}

// queueMessage adds a message to the write queue (non-blocking)
func (cs *ClientSession) queueMessage(msg any) {
	cs.mu.RLock()
	closed := cs.closed
	cs.mu.RUnlock()
	if closed {
		return
	}
	select {
	case cs.writeChan <- msg:
		cs.mu.Lock()
		cs.LastActivity = time.Now()
		cs.mu.Unlock()
	default:
		// Queue full, drop message (shouldn't happen with proper sizing)
	}
}

// Close terminates the session and cleans up resources
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return nil
	}
	cs.closed = true
	cs.mu.Unlock()

	// Cancelling the context abandons any in-flight turn; its buffered text
	// and audio are discarded without producing output.
	cs.cancel()

	close(cs.writeChan)
	close(cs.CloseChan)

	if cs.Capture != nil {
		cs.Capture.Clear()
	}

	if cs.Live != nil {
		cs.Live.Close()
	}

	if cs.ClientConn != nil {
		cs.ClientConn.Close()
	}

	return nil
}

func (cs *ClientSession) handleClientMessages() {
	defer cs.Close()

	for {
		select {
		case <-cs.CloseChan:
			return
		default:
			messageType, message, err := cs.ClientConn.ReadMessage()
			if err != nil {
				return
			}

			cs.mu.Lock()
			cs.LastActivity = time.Now()
			cs.mu.Unlock()

			// Binary messages are raw PCM microphone chunks; buffer them until
			// the client ends its turn.
			if messageType == websocket.BinaryMessage {
				if err := cs.Capture.Append(message); err != nil {
					cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeBufferFull,
						fmt.Sprintf("Capture buffer full (max %d bytes)", cs.Capture.MaxSize())))
				}
				continue
			}

			var clientMsg messages.ClientMessage
			if err := sonic.Unmarshal(message, &clientMsg); err != nil {
				cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid message format"))
				continue
			}

			cs.processClientMessage(&clientMsg)
		}
	}
}

func (cs *ClientSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case "text":
		var payload messages.TextPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil || payload.Text == "" {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid text payload"))
			return
		}
		if err := cs.Live.SendText(payload.Text); err != nil {
			log.Printf("❌ [%s] Failed to send text turn: %v", cs.ID[:8], err)
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeLiveError, err.Error()))
		}

	case "audio":
		var payload messages.AudioPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid audio payload"))
			return
		}
		audioBytes, err := base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid base64 audio data"))
			return
		}
		if err := cs.Capture.Append(audioBytes); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeBufferFull,
				fmt.Sprintf("Capture buffer full (max %d bytes)", cs.Capture.MaxSize())))
		}

	case "control":
		var payload messages.ControlPayload
		if err := sonic.Unmarshal(msg.Payload, &payload); err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		cs.handleControlMessage(&payload)

	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown message type: "+msg.Type))
	}
}

func (cs *ClientSession) handleControlMessage(payload *messages.ControlPayload) {
	switch payload.Action {
	case "ping":
		cs.queueMessage(messages.NewStatusMessage(cs.ID, "pong", ""))
	case "end_turn":
		cs.handleEndTurn()
	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

// handleEndTurn flushes buffered microphone audio upstream as one utterance.
func (cs *ClientSession) handleEndTurn() {
	if cs.Capture.IsEmpty() {
		log.Printf("⚠️ [%s] end_turn received but capture buffer is empty, ignoring", cs.ID[:8])
		return
	}
	chunkCount := cs.Capture.ChunkCount()
	audioData := cs.Capture.Flush()
	log.Printf("📤 [%s] Sending utterance upstream: %d bytes (%d chunks)", cs.ID[:8], len(audioData), chunkCount)

	if err := cs.Live.SendAudioBatch(audioData); err != nil {
		log.Printf("❌ [%s] Failed to send utterance: %v", cs.ID[:8], err)
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeLiveError, err.Error()))
	}
}

// IsClosed returns whether the session is closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.closed
}
