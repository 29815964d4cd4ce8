package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clozet/internal/app/dto"
	messagingsvc "clozet/internal/app/services/messaging"
	"clozet/internal/infra/storage/memory"
)

func setupTestHub(t *testing.T) (*httptest.Server, *Hub, *messagingsvc.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := &messagingsvc.Service{Repo: memory.NewMessageRepository()}
	hub := NewHub(service, nil)
	service.Notifier = Notifier{Hub: hub}

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", hub.HandleWebSocket)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return server, hub, service
}

func dialTestClient(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	// Give the hub a moment to process the registration before any
	// broadcast can race past this client.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func writeFrame(t *testing.T, conn *websocket.Conn, frameType string, payload any) {
	t.Helper()
	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Frame{Type: frameType, Payload: encoded}))
}

func TestPingPong(t *testing.T) {
	server, _, _ := setupTestHub(t)
	conn := dialTestClient(t, server)

	require.NoError(t, conn.WriteJSON(Frame{Type: TypePing}))

	frame := readFrame(t, conn)
	assert.Equal(t, TypePong, frame.Type)
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	server, _, service := setupTestHub(t)
	sender := dialTestClient(t, server)
	observer := dialTestClient(t, server)

	writeFrame(t, sender, TypeSend, sendPayload{
		SenderID:   "alice",
		ReceiverID: "bob",
		ListingID:  "42",
		Content:    "is this available?",
	})

	// Both subscribers of the shared topic see the new message.
	for _, conn := range []*websocket.Conn{sender, observer} {
		frame := readFrame(t, conn)
		require.Equal(t, TypeMessage, frame.Type)
		var message dto.Message
		require.NoError(t, json.Unmarshal(frame.Payload, &message))
		assert.Equal(t, "alice", message.SenderID)
		assert.Equal(t, "is this available?", message.Content)
	}

	all, err := service.ListMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestInvalidSendIsNotBroadcast(t *testing.T) {
	server, _, service := setupTestHub(t)
	sender := dialTestClient(t, server)

	writeFrame(t, sender, TypeSend, sendPayload{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "   ",
	})
	// A ping afterwards must be the first frame back: the rejected send
	// produced no broadcast.
	require.NoError(t, sender.WriteJSON(Frame{Type: TypePing}))

	frame := readFrame(t, sender)
	assert.Equal(t, TypePong, frame.Type)

	all, err := service.ListMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMarkReadBroadcastsReadEvent(t *testing.T) {
	server, _, service := setupTestHub(t)
	conn := dialTestClient(t, server)

	message, err := service.CreateMessage(context.Background(), messagingsvc.CreateMessageParams{
		SenderID:   "alice",
		ReceiverID: "bob",
		ListingID:  "42",
		Content:    "hello",
	})
	require.NoError(t, err)

	// Drain the creation broadcast first.
	frame := readFrame(t, conn)
	require.Equal(t, TypeMessage, frame.Type)

	writeFrame(t, conn, TypeMarkRead, markReadPayload{MessageID: string(message.ID)})

	frame = readFrame(t, conn)
	require.Equal(t, TypeMessageRead, frame.Type)
	var read dto.Message
	require.NoError(t, json.Unmarshal(frame.Payload, &read))
	assert.True(t, read.IsRead)
}

func TestMarkReadUnknownMessageIsSilent(t *testing.T) {
	server, _, _ := setupTestHub(t)
	conn := dialTestClient(t, server)

	writeFrame(t, conn, TypeMarkRead, markReadPayload{MessageID: "missing"})
	require.NoError(t, conn.WriteJSON(Frame{Type: TypePing}))

	// No error frame, no read frame: only the pong comes back.
	frame := readFrame(t, conn)
	assert.Equal(t, TypePong, frame.Type)
}
