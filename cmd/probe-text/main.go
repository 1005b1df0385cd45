// Probe-text sends a single text turn to a voxbridge server and prints the
// streamed transcript, saving the spoken reply as a WAV file.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

type clientMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type textPayload struct {
	Text string `json:"text"`
}

type serverMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	text := flag.String("text", "Hello! What can you do?", "Text turn to send")
	outFile := flag.String("out", "reply.wav", "Where to save the spoken reply")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	msg, _ := sonic.Marshal(clientMessage{Type: "text", Payload: textPayload{Text: *text}})
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Fatalf("Send error: %v", err)
	}
	log.Printf("📤 Sent: %q", *text)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Read error: %v", err)
		}

		var reply serverMessage
		if err := sonic.Unmarshal(raw, &reply); err != nil {
			continue
		}

		switch reply.Type {
		case "transcript":
			var p textPayload
			sonic.Unmarshal(reply.Payload, &p)
			fmt.Printf("\r📝 %s", p.Text)

		case "turn_audio":
			var p struct {
				Data string `json:"data"`
			}
			sonic.Unmarshal(reply.Payload, &p)
			blob, err := base64.StdEncoding.DecodeString(p.Data)
			if err != nil {
				log.Printf("⚠️ Bad turn audio: %v", err)
				continue
			}
			if err := os.WriteFile(*outFile, blob, 0o644); err != nil {
				log.Printf("⚠️ Failed to save reply: %v", err)
				continue
			}
			log.Printf("\n💾 Saved spoken reply to %s (%d bytes)", *outFile, len(blob))

		case "status":
			var p struct {
				Status string `json:"status"`
			}
			sonic.Unmarshal(reply.Payload, &p)
			if p.Status == "turn_complete" {
				fmt.Println()
				log.Println("✅ Turn complete")
				return
			}

		case "error":
			log.Fatalf("❌ Error: %s", string(reply.Payload))
		}
	}
}
