package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"clozet/internal/app/policies"
	domainmessaging "clozet/internal/domain/messaging"
)

const eventsTopic = "messaging.events"

// EventNotifier mirrors messaging events onto a Kafka topic so other
// marketplace services (notifications, moderation) can react to chat
// activity. Publishing is best effort: failures are logged, never returned.
type EventNotifier struct {
	Producer    *Producer
	TopicPrefix string
	Logger      *slog.Logger
}

type messageEvent struct {
	Type           string    `json:"type"`
	MessageID      string    `json:"message_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	SenderID       string    `json:"sender_id,omitempty"`
	ReceiverID     string    `json:"receiver_id,omitempty"`
	ListingID      string    `json:"listing_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (n *EventNotifier) MessageCreated(ctx context.Context, message *domainmessaging.Message) {
	n.publish(ctx, newMessageEvent("message.created", message))
}

func (n *EventNotifier) MessageUpdated(ctx context.Context, message *domainmessaging.Message) {
	n.publish(ctx, newMessageEvent("message.updated", message))
}

func (n *EventNotifier) MessageRead(ctx context.Context, message *domainmessaging.Message) {
	n.publish(ctx, newMessageEvent("message.read", message))
}

func (n *EventNotifier) MessageDeleted(ctx context.Context, id domainmessaging.MessageID) {
	n.publish(ctx, messageEvent{Type: "message.deleted", MessageID: string(id), OccurredAt: time.Now().UTC()})
}

func (n *EventNotifier) ConversationArchived(ctx context.Context, conversationID, userID string) {
	n.publish(ctx, messageEvent{
		Type:           "conversation.archived",
		ConversationID: conversationID,
		UserID:         userID,
		OccurredAt:     time.Now().UTC(),
	})
}

func newMessageEvent(eventType string, message *domainmessaging.Message) messageEvent {
	return messageEvent{
		Type:           eventType,
		MessageID:      string(message.ID),
		ConversationID: message.Key(),
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		ListingID:      message.ListingID,
		OccurredAt:     time.Now().UTC(),
	}
}

func (n *EventNotifier) publish(ctx context.Context, event messageEvent) {
	if n.Producer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logError("encode messaging event", err, event.Type)
		return
	}
	key := event.ConversationID
	if key == "" {
		key = event.MessageID
	}
	topic := n.TopicPrefix + eventsTopic
	if err := n.Producer.Publish(ctx, topic, key, payload, map[string]string{"event_type": event.Type}); err != nil {
		n.logError("publish messaging event", err, event.Type)
	}
}

func (n *EventNotifier) logError(msg string, err error, eventType string) {
	if n.Logger != nil {
		n.Logger.Error(msg, "error", err, "event_type", eventType)
	}
}

var _ policies.MessageNotifier = (*EventNotifier)(nil)
