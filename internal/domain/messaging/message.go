package messaging

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound            = errors.New("messaging: message not found")
	ErrEmptyContent        = errors.New("messaging: content must not be blank")
	ErrParticipantRequired = errors.New("messaging: sender and receiver are required")
	ErrUserRequired        = errors.New("messaging: user id is required")
	ErrConversationMissing = errors.New("messaging: conversation not found")
)

type MessageID string

// Message is a single persisted chat message between two marketplace users
// about a listing. Conversations are never stored; they are derived from
// these rows at query time.
type Message struct {
	ID         MessageID
	SenderID   string
	ReceiverID string
	ListingID  string
	Content    string
	CreatedAt  time.Time
	IsRead     bool

	// Archive flags are per row and relative to that row's orientation:
	// ArchivedBySender belongs to whoever sent this particular message.
	ArchivedBySender   bool
	ArchivedByReceiver bool
}

// ArchivedFor reports whether the given user's side of this row is archived.
// A user that is neither sender nor receiver is never archived.
func (m *Message) ArchivedFor(userID string) bool {
	switch userID {
	case m.SenderID:
		return m.ArchivedBySender
	case m.ReceiverID:
		return m.ArchivedByReceiver
	}
	return false
}

// SetArchivedFor flips the side flag owned by userID. It reports whether the
// row was touched, so callers can skip persistence for unrelated rows.
func (m *Message) SetArchivedFor(userID string, archived bool) bool {
	touched := false
	if m.SenderID == userID {
		m.ArchivedBySender = archived
		touched = true
	}
	if m.ReceiverID == userID {
		m.ArchivedByReceiver = archived
		touched = true
	}
	return touched
}

type CreateParams struct {
	ID         MessageID
	SenderID   string
	ReceiverID string
	ListingID  string
	Content    string
	Now        time.Time
}

// NewMessage validates and builds a message. CreatedAt is fixed at creation
// and never mutated afterwards.
func NewMessage(params CreateParams) (*Message, error) {
	sender := strings.TrimSpace(params.SenderID)
	receiver := strings.TrimSpace(params.ReceiverID)
	if sender == "" || receiver == "" {
		return nil, ErrParticipantRequired
	}
	if strings.TrimSpace(params.Content) == "" {
		return nil, ErrEmptyContent
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Message{
		ID:         params.ID,
		SenderID:   sender,
		ReceiverID: receiver,
		ListingID:  strings.TrimSpace(params.ListingID),
		Content:    params.Content,
		CreatedAt:  now.UTC(),
	}, nil
}

// Repository is the durable store for messages. Implementations return
// ErrNotFound for absent identifiers.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	ByID(ctx context.Context, id MessageID) (*Message, error)
	// ByParticipant returns every message where the user is sender or receiver.
	ByParticipant(ctx context.Context, userID string) ([]*Message, error)
	All(ctx context.Context) ([]*Message, error)
	Update(ctx context.Context, message *Message) error
	Delete(ctx context.Context, id MessageID) error
}
