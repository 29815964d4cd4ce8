package dto

import (
	"time"

	domainmessaging "clozet/internal/domain/messaging"
)

// Message is the wire shape of a stored message.
type Message struct {
	ID                 string    `json:"id"`
	SenderID           string    `json:"sender_id"`
	ReceiverID         string    `json:"receiver_id"`
	ListingID          string    `json:"listing_id,omitempty"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"created_at"`
	IsRead             bool      `json:"is_read"`
	ArchivedBySender   bool      `json:"archived_by_sender"`
	ArchivedByReceiver bool      `json:"archived_by_receiver"`
}

// Conversation is a derived thread summary for one requesting user.
type Conversation struct {
	ID              string    `json:"conversation_id"`
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	ListingID       string    `json:"listing_id,omitempty"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	Archived        bool      `json:"archived"`
	Messages        []Message `json:"messages"`
}

// CreateMessageRequest is the POST /messages payload.
type CreateMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	ListingID  string `json:"listing_id"`
	Content    string `json:"content"`
}

// UpdateMessageRequest is the PUT /messages/:id payload. Nil fields are
// left untouched.
type UpdateMessageRequest struct {
	Content *string `json:"content"`
	IsRead  *bool   `json:"is_read"`
}

// NewMessage maps the domain entity to its wire shape.
func NewMessage(m *domainmessaging.Message) Message {
	return Message{
		ID:                 string(m.ID),
		SenderID:           m.SenderID,
		ReceiverID:         m.ReceiverID,
		ListingID:          m.ListingID,
		Content:            m.Content,
		CreatedAt:          m.CreatedAt,
		IsRead:             m.IsRead,
		ArchivedBySender:   m.ArchivedBySender,
		ArchivedByReceiver: m.ArchivedByReceiver,
	}
}

// NewConversation maps a derived conversation to its wire shape.
func NewConversation(c domainmessaging.Conversation) Conversation {
	messages := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, NewMessage(m))
	}
	return Conversation{
		ID:              c.ID,
		SenderID:        c.SenderID,
		ReceiverID:      c.ReceiverID,
		ListingID:       c.ListingID,
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageTime,
		Archived:        c.Archived,
		Messages:        messages,
	}
}
