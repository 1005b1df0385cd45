// Probe is a voice test client: it streams a PCM/WAV file to a voxbridge
// server at the microphone cadence, prints transcript updates as they arrive,
// and saves (optionally plays) the assembled per-turn WAV replies.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"voxbridge/wav"
)

// captureCadence matches a real microphone's chunking interval.
const captureCadence = 200 * time.Millisecond

// inputSampleRate is the upstream input format (16kHz 16-bit mono PCM).
const inputSampleRate = 16000

type clientMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type controlPayload struct {
	Action string `json:"action"`
}

type serverMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type transcriptPayload struct {
	Text string `json:"text"`
}

type turnAudioPayload struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type statusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	audioFile := flag.String("file", "examples/user.pcm", "Audio file to send (raw PCM or WAV)")
	outPrefix := flag.String("out", "turn", "Prefix for saved per-turn WAV files")
	play := flag.Bool("play", false, "Play received turns with sox")
	turns := flag.Int("turns", 1, "Number of turn replies to wait for before exiting")
	flag.Parse()

	log.Printf("🔌 Connecting to %s...", *serverURL)
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Println("✅ Connected!")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	turnsSeen := 0

	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}

			var msg serverMessage
			if err := sonic.Unmarshal(message, &msg); err != nil {
				log.Println("Parse error:", err)
				continue
			}

			switch msg.Type {
			case "transcript":
				var payload transcriptPayload
				sonic.Unmarshal(msg.Payload, &payload)
				fmt.Printf("\r📝 %s", payload.Text)

			case "turn_audio":
				var payload turnAudioPayload
				sonic.Unmarshal(msg.Payload, &payload)
				blob, err := base64.StdEncoding.DecodeString(payload.Data)
				if err != nil {
					log.Println("Bad turn audio:", err)
					continue
				}
				handleTurnAudio(blob, *outPrefix, turnsSeen, *play)

			case "status":
				var payload statusPayload
				sonic.Unmarshal(msg.Payload, &payload)
				if payload.Status == "turn_complete" {
					fmt.Println()
					log.Println("--- Turn complete ---")
					turnsSeen++
					if turnsSeen >= *turns {
						return
					}
				} else {
					log.Printf("📊 Status: %s %s", payload.Status, payload.Message)
				}

			case "error":
				log.Printf("❌ Error: %s", string(msg.Payload))
			}
		}
	}()

	// Give the server a moment to report "connected".
	time.Sleep(500 * time.Millisecond)

	log.Printf("📤 Streaming audio file: %s", *audioFile)
	audioData, err := loadAudioFile(*audioFile)
	if err != nil {
		log.Fatalf("Failed to load audio: %v", err)
	}

	// One chunk per capture interval: 16kHz * 2 bytes * 0.2s.
	chunkSize := inputSampleRate * 2 * int(captureCadence) / int(time.Second)
	total := (len(audioData) + chunkSize - 1) / chunkSize
	for i := 0; i < len(audioData); i += chunkSize {
		end := i + chunkSize
		if end > len(audioData) {
			end = len(audioData)
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, audioData[i:end]); err != nil {
			log.Fatalf("Send error: %v", err)
		}
		log.Printf("📤 Sent chunk %d/%d (%d bytes)", i/chunkSize+1, total, end-i)
		time.Sleep(captureCadence)
	}

	// Tell the server the utterance is over.
	endTurn, _ := sonic.Marshal(clientMessage{Type: "control", Payload: controlPayload{Action: "end_turn"}})
	if err := conn.WriteMessage(websocket.TextMessage, endTurn); err != nil {
		log.Fatalf("Send error: %v", err)
	}
	log.Println("✅ Utterance sent, waiting for reply...")

	select {
	case <-done:
		log.Println("Done")
	case <-interrupt:
		log.Println("\n👋 Interrupted, closing...")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-time.After(60 * time.Second):
		log.Println("⏰ Timeout waiting for reply")
	}
}

func handleTurnAudio(blob []byte, prefix string, index int, play bool) {
	info, err := wav.ReadInfo(blob)
	if err != nil {
		log.Printf("⚠️ Received malformed WAV: %v", err)
		return
	}
	log.Printf("🔊 Turn audio: %d bytes, %dHz %d-bit %dch",
		len(blob), info.SampleRate, info.BitsPerSample, info.Channels)

	path := fmt.Sprintf("%s-%03d.wav", prefix, index)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		log.Printf("⚠️ Failed to save %s: %v", path, err)
		return
	}
	log.Printf("💾 Saved %s", path)

	if play {
		if err := exec.Command("sox", path, "-d").Run(); err != nil {
			log.Printf("⚠️ sox playback failed: %v", err)
		}
	}
}

// loadAudioFile loads a PCM or WAV file and returns raw PCM bytes.
func loadAudioFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if pcm, err := wav.Data(data); err == nil {
		log.Println("📁 Detected WAV file, stripping header")
		return pcm, nil
	}

	log.Println("📁 Assuming raw PCM file")
	return data, nil
}
