// Package turn reassembles the fragments of a streamed model response into
// complete turns: a monotonically growing transcript plus one playable WAV
// blob. Fragments arrive in whatever grouping and interleaving the remote
// peer chose; the only ordering guarantee needed is arrival order.
package turn

// AudioChunk is one base64-encoded slice of raw PCM audio. The MIME type of
// the first chunk in a turn governs the whole turn's format.
type AudioChunk struct {
	Data     string // base64-encoded raw PCM samples
	MIMEType string // e.g. "audio/L16;rate=24000"
}

// Part is an atomic fragment of a message: text or audio, never both.
type Part struct {
	Text  string
	Audio *AudioChunk
}

// Message is one delivery unit from the transport. TurnComplete marks the end
// of the model's turn; it may arrive on a message with no parts at all.
type Message struct {
	Parts        []Part
	TurnComplete bool
}
