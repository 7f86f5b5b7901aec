package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/midsbie/promptivd"
)

const clientVersion = "0.1.0"

func main() {
	server := flag.String("server", "ws://127.0.0.1:8787/v1/sink/ws", "WebSocket URL for the relay sink endpoint")
	ackMode := flag.String("ack-mode", "ok", "ack behavior for incoming jobs: ok, retry, or failed")
	ackDelayMS := flag.Int64("ack-delay-ms", 0, "artificial processing delay before sending ack, in milliseconds")
	capability := flag.String("capability", "append", "comma-separated capabilities to advertise")
	provider := flag.String("provider", "", "comma-separated providers to advertise")
	flag.Parse()

	status := promptivd.AckStatus(*ackMode)
	switch status {
	case promptivd.AckOK, promptivd.AckRetry, promptivd.AckFailed:
	default:
		log.Fatalf("invalid -ack-mode %q: must be ok, retry, or failed", *ackMode)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*server, nil)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *server, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *server)

	register, err := promptivd.EncodeRegisterFrame(promptivd.RegisterFrame{
		Version:      clientVersion,
		Capabilities: splitNonEmpty(*capability),
		Providers:    splitNonEmpty(*provider),
	})
	if err != nil {
		log.Fatalf("failed to encode register frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, register); err != nil {
		log.Fatalf("failed to send register frame: %v", err)
	}
	fmt.Println("Sent register frame")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Printf("connection closed: %v\n", err)
			return
		}

		typ, payload, err := promptivd.DecodeRelayFrame(data)
		if err != nil {
			fmt.Printf("failed to parse relay frame: %v\n", err)
			continue
		}

		switch typ {
		case promptivd.FramePing:
			handlePing(conn)
		case promptivd.FramePolicy:
			handlePolicy(payload.(*promptivd.PolicyFrame))
		case promptivd.FrameInsertText:
			handleInsertText(conn, payload.(*promptivd.InsertTextFrame), status, *ackDelayMS)
		}
	}
}

func handlePing(conn *websocket.Conn) {
	fmt.Println("Received ping")
	pong, err := promptivd.EncodePongFrame()
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, pong); err != nil {
		fmt.Printf("failed to send pong: %v\n", err)
	} else {
		fmt.Println("Sent pong")
	}
}

func handlePolicy(f *promptivd.PolicyFrame) {
	fmt.Printf("Received policy: supersede_on_register=%v max_job_bytes=%d\n", f.SupersedeOnRegister, f.MaxJobBytes)
}

func handleInsertText(conn *websocket.Conn, f *promptivd.InsertTextFrame, status promptivd.AckStatus, delayMS int64) {
	fmt.Printf("Received insert_text job_id=%s text=%q\n", f.ID, f.Payload.Text)

	if delayMS > 0 {
		time.Sleep(time.Duration(delayMS) * time.Millisecond)
	}

	ack := promptivd.AckFrame{ID: f.ID, Status: status}
	switch status {
	case promptivd.AckRetry:
		ack.Error = "Simulated retry"
	case promptivd.AckFailed:
		ack.Error = "Simulated failure"
	}

	frame, err := promptivd.EncodeAckFrame(ack)
	if err != nil {
		fmt.Printf("failed to encode ack: %v\n", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		fmt.Printf("failed to send ack: %v\n", err)
		return
	}
	fmt.Printf("Sent ack status=%s\n", status)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
