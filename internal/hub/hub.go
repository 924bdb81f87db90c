package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"
	"realestate-backend/internal/validator"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64
	saveTimeout    = 5 * time.Second
)

// MessageStore persists messages sent over a connection before they are relayed.
type MessageStore interface {
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	CreateMessage(ctx context.Context, senderID int64, receiverID int64, content string) (models.Message, error)
}

type Server struct {
	relay    *Relay
	messages MessageStore
	upgrader websocket.Upgrader
	sugar    *zap.SugaredLogger
}

// NewServer accepts upgrades from allowedOrigins, from the server's own host, and from
// clients that send no Origin header. "*" allows every origin.
func NewServer(relay *Relay, messages MessageStore, allowedOrigins []string, sugar *zap.SugaredLogger) *Server {
	return &Server{
		relay:    relay,
		messages: messages,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		sugar: sugar,
	}
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range allowedOrigins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// HandleClient upgrades the request and registers the connection under userID until it
// disconnects or is replaced by a newer connection of the same user.
func (s *Server) HandleClient(userID int64, w http.ResponseWriter, r *http.Request) {
	s.sugar.Debugf("Connecting user ID [%d] to WebSocket", userID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied with an error status
		s.sugar.Debug(err)
		return
	}

	client := NewClient(userID, sendBufferSize)
	client.Conn = conn

	s.relay.Register(client)

	go s.writePump(client)
	s.readPump(client)

	s.relay.Deregister(client)
	client.Close()
	s.sugar.Debugf("User ID [%d] disconnected from WebSocket", userID)
}

func (s *Server) readPump(client *Client) {
	conn := client.Conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.sugar.Debug(err)
			}
			return
		}

		select {
		case <-client.Done():
			return
		default:
		}

		s.handleFrame(ctx, client, frame)
	}
}

func (s *Server) writePump(client *Client) {
	conn := client.Conn
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		client.Close()
	}()

	for {
		select {
		case frame := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.sugar.Debug(err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.sugar.Debug(err)
				return
			}
		case <-client.Done():
			closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(writeWait))
			return
		}
	}
}

// handleFrame runs on the read loop, so the frames of one connection are handled
// one at a time and in order.
func (s *Server) handleFrame(ctx context.Context, client *Client, frame []byte) {
	event, payload, err := ParseMessage(frame)
	if err != nil {
		s.sugar.Debug(err)
		s.reply(client, Error, ErrorEvent{Message: "Malformed frame"})
		return
	}

	switch event {
	case SendMessage:
		s.sendMessage(ctx, client, payload)
	default:
		s.sugar.Debugf("User ID [%d] sent unknown event [%s]", client.UserID, event)
		s.reply(client, Error, ErrorEvent{Message: "Unknown event " + event})
	}
}

func (s *Server) sendMessage(ctx context.Context, client *Client, payload []byte) {
	var in SendMessageEvent
	if err := json.Unmarshal(payload, &in); err != nil {
		s.sugar.Debug(err)
		s.reply(client, Error, ErrorEvent{Message: "Invalid sendMessage payload"})
		return
	}

	if in.SenderID != 0 && in.SenderID != client.UserID {
		s.reply(client, Error, ErrorEvent{Ref: in.Ref, Message: "senderId doesn't match the connected user"})
		return
	}
	if in.ReceiverID == 0 {
		s.reply(client, Error, ErrorEvent{Ref: in.Ref, Message: "receiverId is required"})
		return
	}
	if err := validator.MessageContent(in.Content); err != nil {
		s.reply(client, Error, ErrorEvent{Ref: in.Ref, Message: "Invalid content: " + err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	message, err := SaveMessage(ctx, s.messages, client.UserID, in.ReceiverID, in.Content)
	if errors.Is(err, database.ErrNotFound) {
		s.reply(client, Error, ErrorEvent{Ref: in.Ref, Message: "Receiver not found"})
		return
	} else if err != nil {
		s.sugar.Error(err)
		s.reply(client, Error, ErrorEvent{Ref: in.Ref, Message: "Couldn't save message"})
		return
	}

	outcome := s.relay.Relay(message)
	s.reply(client, Ack, AckEvent{Ref: in.Ref, Delivered: outcome == Delivered, Message: message})
}

// SaveMessage checks that the receiver exists and persists the message. It returns
// database.ErrNotFound for an unknown receiver.
func SaveMessage(ctx context.Context, messages MessageStore, senderID int64, receiverID int64, content string) (models.Message, error) {
	if _, err := messages.FindUserByID(ctx, receiverID); err != nil {
		return models.Message{}, err
	}
	return messages.CreateMessage(ctx, senderID, receiverID, content)
}

// reply queues a frame for the client's own connection.
func (s *Server) reply(client *Client, event string, payload any) {
	frame, err := PrepareMessage(event, payload)
	if err != nil {
		s.sugar.Error(err)
		return
	}
	if !client.enqueue(frame) {
		s.sugar.Debugf("Connection [%s] of user ID [%d] dropped a %s frame", client.ID, client.UserID, event)
	}
}
