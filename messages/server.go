package messages

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeLiveError        = "LIVE_ERROR"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeBufferFull       = "BUFFER_FULL"
)

// Message types
const (
	TypeTranscript = "transcript"
	TypeTurnAudio  = "turn_audio"
	TypeStatus     = "status"
	TypeError      = "error"
)

// ServerMessage is the envelope for everything sent to the frontend client.
type ServerMessage struct {
	Type      string      `json:"type"` // "transcript", "turn_audio", "status", "error"
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// TranscriptPayload carries the full transcript of the in-flight turn. Sent
// after every text fragment so the client renders partial text immediately.
type TranscriptPayload struct {
	Text string `json:"text"`
}

// TurnAudioPayload carries the complete playable WAV blob for one turn.
type TurnAudioPayload struct {
	Data     string `json:"data"`     // Base64-encoded WAV file
	MimeType string `json:"mimeType"` // always "audio/wav"
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "turn_complete", "disconnected", "pong"
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewTranscriptMessage creates an incremental transcript update.
func NewTranscriptMessage(sessionID, text string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTranscript,
		SessionID: sessionID,
		Payload: TranscriptPayload{
			Text: text,
		},
	}
}

// NewTurnAudioMessage creates the end-of-turn audio message.
func NewTurnAudioMessage(sessionID, wavBase64 string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeTurnAudio,
		SessionID: sessionID,
		Payload: TurnAudioPayload{
			Data:     wavBase64,
			MimeType: "audio/wav",
		},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}
