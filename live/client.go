// Package live wraps the Gemini Live API behind the narrow transport surface
// the rest of voxbridge needs: send a turn's input, receive a stream of turn
// messages, and learn about connection failure.
package live

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sync"

	"google.golang.org/genai"

	"voxbridge/turn"
)

// DefaultModel is the native-audio Live model used unless config overrides it.
const DefaultModel = "models/gemini-2.5-flash-native-audio-preview-12-2025"

// InputMIMEType is the fixed format of microphone audio we stream upstream.
const InputMIMEType = "audio/pcm;rate=16000"

// Client manages one connection to the Gemini Live API.
type Client struct {
	client *genai.Client
	model  string

	session *genai.Session

	// OnMessage receives every inbound message carrying parts or a
	// turn-complete flag, in arrival order. Set before StartReceiving.
	OnMessage func(msg *turn.Message)

	// OnError is invoked on receive failure or receiver shutdown. This is the
	// session's only cancellation signal; the owner must abandon any
	// in-flight turn when it fires.
	OnError func(err error)

	mu     sync.RWMutex
	closed bool
}

// NewClient creates a Live API client. Connect is deferred to Setup.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Setup establishes the Live session with audio responses and the given
// system prompt.
func (c *Client) Setup(ctx context.Context, systemPrompt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("live client is closed")
	}

	config := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{"AUDIO"},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: "Zephyr",
				},
			},
		},
	}

	session, err := c.client.Live.Connect(ctx, c.model, config)
	if err != nil {
		return fmt.Errorf("failed to connect to Live API: %w", err)
	}

	c.session = session
	log.Printf("✅ Connected to Gemini Live (%s)", c.model)
	return nil
}

// StartReceiving spawns the receive loop, translating Live server messages
// into turn messages delivered through OnMessage.
func (c *Client) StartReceiving(ctx context.Context) {
	go func() {
		defer func() {
			if c.OnError != nil {
				c.OnError(fmt.Errorf("live receiver closed"))
			}
		}()

		for {
			if ctx.Err() != nil {
				return
			}

			c.mu.RLock()
			if c.closed || c.session == nil {
				c.mu.RUnlock()
				return
			}
			session := c.session
			c.mu.RUnlock()

			// Receive blocks until a message arrives or the stream breaks.
			resp, err := session.Receive()
			if err != nil {
				c.mu.RLock()
				closed := c.closed
				c.mu.RUnlock()

				if !closed {
					log.Printf("❌ Live receive error: %v", err)
					if c.OnError != nil {
						c.OnError(err)
					}
				}
				return
			}

			c.handleResponse(resp)
		}
	}()
}

// handleResponse converts one Live server message into the transport-neutral
// turn message. Parts keep the order the SDK delivered them in.
func (c *Client) handleResponse(resp *genai.LiveServerMessage) {
	if resp.ServerContent == nil {
		return
	}

	msg := &turn.Message{}

	if resp.ServerContent.ModelTurn != nil {
		for _, part := range resp.ServerContent.ModelTurn.Parts {
			if part.Text != "" {
				msg.Parts = append(msg.Parts, turn.Part{Text: part.Text})
			}
			if part.InlineData != nil {
				msg.Parts = append(msg.Parts, turn.Part{Audio: &turn.AudioChunk{
					Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
					MIMEType: part.InlineData.MIMEType,
				}})
			}
		}
	}

	msg.TurnComplete = resp.ServerContent.TurnComplete

	if len(msg.Parts) == 0 && !msg.TurnComplete {
		return
	}
	if c.OnMessage != nil {
		c.OnMessage(msg)
	}
}

// SendText submits a complete text turn.
func (c *Client) SendText(text string) error {
	c.mu.RLock()
	session := c.session
	closed := c.closed
	c.mu.RUnlock()

	if closed || session == nil {
		return fmt.Errorf("live client is closed or not connected")
	}

	turnComplete := true
	err := session.SendClientContent(genai.LiveSendClientContentParameters{
		Turns: []*genai.Content{
			{
				Role:  "user",
				Parts: []*genai.Part{{Text: text}},
			},
		},
		TurnComplete: &turnComplete,
	})
	if err != nil {
		return fmt.Errorf("failed to send text: %w", err)
	}

	log.Printf("📤 Sent text turn (%d chars)", len(text))
	return nil
}

// SendAudio streams one microphone chunk upstream.
func (c *Client) SendAudio(audioData []byte) error {
	return c.sendRealtimeInput(audioData)
}

// SendAudioBatch sends a complete buffered utterance followed by the
// audio-stream-end signal, prompting the model to respond.
func (c *Client) SendAudioBatch(audioData []byte) error {
	if len(audioData) == 0 {
		return nil
	}

	if err := c.sendRealtimeInput(audioData); err != nil {
		return fmt.Errorf("failed to send audio batch: %w", err)
	}
	return c.sendStreamEnd()
}

func (c *Client) sendRealtimeInput(data []byte) error {
	c.mu.RLock()
	session := c.session
	closed := c.closed
	c.mu.RUnlock()

	if closed || session == nil {
		return fmt.Errorf("live client is closed or not connected")
	}

	err := session.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			MIMEType: InputMIMEType,
			Data:     data,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}

	log.Printf("📤 Sent %d bytes audio upstream", len(data))
	return nil
}

func (c *Client) sendStreamEnd() error {
	c.mu.RLock()
	session := c.session
	closed := c.closed
	c.mu.RUnlock()

	if closed || session == nil {
		return fmt.Errorf("live client is closed or not connected")
	}

	err := session.SendRealtimeInput(genai.LiveRealtimeInput{
		AudioStreamEnd: true,
	})
	if err != nil {
		return fmt.Errorf("failed to send audio stream end: %w", err)
	}

	log.Println("📤 Sent audio stream end")
	return nil
}

// Close terminates the Live connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
