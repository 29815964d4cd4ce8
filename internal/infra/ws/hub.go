package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"clozet/internal/app/dto"
	"clozet/internal/app/policies"
	messagingsvc "clozet/internal/app/services/messaging"
	domainmessaging "clozet/internal/domain/messaging"
)

// Frame types on the shared topic.
const (
	TypeSend                = "send"
	TypeMarkRead            = "mark_read"
	TypePing                = "ping"
	TypeMessage             = "message"
	TypeMessageUpdate       = "message.update"
	TypeMessageRead         = "message.read"
	TypeMessageDelete       = "message.delete"
	TypeConversationArchive = "conversation.archive"
	TypePong                = "pong"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// Frame is the envelope exchanged over the websocket channel.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type sendPayload struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`
	Content    string `json:"content"`
}

type markReadPayload struct {
	MessageID string `json:"message_id"`
}

type archivePayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// Client is one live websocket subscriber.
type Client struct {
	ID     uuid.UUID
	Socket *websocket.Conn
	Send   chan []byte
}

// Hub maintains the set of connected clients and broadcasts messaging
// events to all of them. Delivery is best effort: a slow client's buffer
// overflow drops the client, never blocks the hub.
type Hub struct {
	Service *messagingsvc.Service
	Logger  *slog.Logger

	clients    map[uuid.UUID]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.Mutex
}

func NewHub(service *messagingsvc.Service, logger *slog.Logger) *Hub {
	return &Hub{
		Service:    service,
		Logger:     logger,
		clients:    make(map[uuid.UUID]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes register/unregister/broadcast events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			h.log().Debug("ws client connected", "client_id", client.ID)
		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mutex.Unlock()
			h.log().Debug("ws client disconnected", "client_id", client.ID)
		case payload := <-h.broadcast:
			h.mutex.Lock()
			for _, client := range h.clients {
				select {
				case client.Send <- payload:
				default:
					close(client.Send)
					delete(h.clients, client.ID)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast pushes a frame to every connected client. Errors are logged and
// swallowed; the channel gives no delivery guarantee.
func (h *Hub) Broadcast(frameType string, payload any) {
	frame, err := encodeFrame(frameType, payload)
	if err != nil {
		h.log().Error("ws frame encode failed", "type", frameType, "error", err)
		return
	}
	h.broadcast <- frame
}

// HandleWebSocket upgrades the request and subscribes the client to the
// shared topic.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log().Warn("ws upgrade failed", "error", err, "remote", c.Request.RemoteAddr)
		return
	}

	client := &Client{
		ID:     uuid.New(),
		Socket: conn,
		Send:   make(chan []byte, sendBuffer),
	}
	h.register <- client

	go h.readPump(client)
	go client.writePump()
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		h.unregister <- client
		client.Socket.Close()
	}()

	client.Socket.SetReadLimit(maxMessageSize)
	client.Socket.SetReadDeadline(time.Now().Add(pongWait))
	client.Socket.SetPongHandler(func(string) error {
		client.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := client.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log().Warn("ws read failed", "client_id", client.ID, "error", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.log().Warn("ws frame decode failed", "client_id", client.ID, "error", err)
			continue
		}
		h.dispatch(client, frame)
	}
}

func (h *Hub) dispatch(client *Client, frame Frame) {
	ctx := context.Background()
	switch frame.Type {
	case TypeSend:
		var payload sendPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			h.log().Warn("ws send payload invalid", "client_id", client.ID, "error", err)
			return
		}
		// Persist first: the service broadcasts through the notifier only
		// after the store accepted the row.
		if _, err := h.Service.CreateMessage(ctx, messagingsvc.CreateMessageParams{
			SenderID:   payload.SenderID,
			ReceiverID: payload.ReceiverID,
			ListingID:  payload.ListingID,
			Content:    payload.Content,
		}); err != nil {
			h.log().Warn("ws message rejected", "client_id", client.ID, "error", err)
		}
	case TypeMarkRead:
		var payload markReadPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			h.log().Warn("ws mark_read payload invalid", "client_id", client.ID, "error", err)
			return
		}
		// Fire and forget: no acknowledgment to the sender either way.
		if _, err := h.Service.MarkRead(ctx, domainmessaging.MessageID(payload.MessageID)); err != nil {
			h.log().Debug("ws mark_read failed", "message_id", payload.MessageID, "error", err)
		}
	case TypePing:
		pong, err := encodeFrame(TypePong, nil)
		if err != nil {
			return
		}
		client.enqueue(pong)
	default:
		h.log().Debug("ws frame ignored", "client_id", client.ID, "type", frame.Type)
	}
}

func (c *Client) enqueue(frame []byte) {
	select {
	case c.Send <- frame:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeFrame(frameType string, payload any) ([]byte, error) {
	frame := struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{Type: frameType, Payload: payload}
	return json.Marshal(frame)
}

// Notifier adapts the hub to the messaging notifier port.
type Notifier struct {
	Hub *Hub
}

func (n Notifier) MessageCreated(ctx context.Context, message *domainmessaging.Message) {
	n.Hub.Broadcast(TypeMessage, dto.NewMessage(message))
}

func (n Notifier) MessageUpdated(ctx context.Context, message *domainmessaging.Message) {
	n.Hub.Broadcast(TypeMessageUpdate, dto.NewMessage(message))
}

func (n Notifier) MessageRead(ctx context.Context, message *domainmessaging.Message) {
	n.Hub.Broadcast(TypeMessageRead, dto.NewMessage(message))
}

func (n Notifier) MessageDeleted(ctx context.Context, id domainmessaging.MessageID) {
	n.Hub.Broadcast(TypeMessageDelete, map[string]string{"message_id": string(id)})
}

func (n Notifier) ConversationArchived(ctx context.Context, conversationID, userID string) {
	n.Hub.Broadcast(TypeConversationArchive, archivePayload{ConversationID: conversationID, UserID: userID})
}

func (h *Hub) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ policies.MessageNotifier = Notifier{}
