package messages

import "encoding/json"

// ClientMessage represents a message from the frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "text", "audio", "control"
	Payload json.RawMessage `json:"payload"`
}

// TextPayload is a complete text turn from the user.
type TextPayload struct {
	Text string `json:"text"`
}

// AudioPayload contains one microphone chunk from the client
type AudioPayload struct {
	Data     string `json:"data"`               // Base64-encoded raw PCM audio
	MimeType string `json:"mimeType,omitempty"` // informational, input format is fixed
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "ping", "end_turn"
}
