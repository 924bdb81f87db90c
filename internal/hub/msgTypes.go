package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"realestate-backend/internal/models"
)

const (
	// client -> server
	SendMessage = "sendMessage"

	// server -> client
	ReceiveMessage = "receiveMessage"
	Ack            = "ack"
	Error          = "error"
)

type SendMessageEvent struct {
	Ref        string `json:"ref"`
	SenderID   int64  `json:"senderId,string,omitempty"`
	ReceiverID int64  `json:"receiverId,string"`
	Content    string `json:"content"`
}

type AckEvent struct {
	Ref       string         `json:"ref"`
	Delivered bool           `json:"delivered"`
	Message   models.Message `json:"message"`
}

type ErrorEvent struct {
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

// PrepareMessage builds a frame: the event name, a newline, then the JSON payload.
func PrepareMessage(event string, payload any) ([]byte, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(event)+1+len(jsonBytes))
	frame = append(frame, event...)
	frame = append(frame, '\n')
	frame = append(frame, jsonBytes...)
	return frame, nil
}

func ParseMessage(frame []byte) (string, []byte, error) {
	event, payload, found := bytes.Cut(frame, []byte{'\n'})
	if !found || len(event) == 0 {
		return "", nil, fmt.Errorf("frame has no event name")
	}
	return string(event), payload, nil
}
