package policies

import (
	"context"

	domainmessaging "clozet/internal/domain/messaging"
)

// MessageNotifier is the best-effort fan-out path for messaging events.
// Implementations must never block on or surface delivery failures to the
// caller; a message is broadcast only after it has been durably stored.
type MessageNotifier interface {
	MessageCreated(ctx context.Context, message *domainmessaging.Message)
	MessageUpdated(ctx context.Context, message *domainmessaging.Message)
	MessageRead(ctx context.Context, message *domainmessaging.Message)
	MessageDeleted(ctx context.Context, id domainmessaging.MessageID)
	ConversationArchived(ctx context.Context, conversationID, userID string)
}

// MultiNotifier fans events out to several channels (websocket hub, broker).
type MultiNotifier []MessageNotifier

func (n MultiNotifier) MessageCreated(ctx context.Context, message *domainmessaging.Message) {
	for _, notifier := range n {
		notifier.MessageCreated(ctx, message)
	}
}

func (n MultiNotifier) MessageUpdated(ctx context.Context, message *domainmessaging.Message) {
	for _, notifier := range n {
		notifier.MessageUpdated(ctx, message)
	}
}

func (n MultiNotifier) MessageRead(ctx context.Context, message *domainmessaging.Message) {
	for _, notifier := range n {
		notifier.MessageRead(ctx, message)
	}
}

func (n MultiNotifier) MessageDeleted(ctx context.Context, id domainmessaging.MessageID) {
	for _, notifier := range n {
		notifier.MessageDeleted(ctx, id)
	}
}

func (n MultiNotifier) ConversationArchived(ctx context.Context, conversationID, userID string) {
	for _, notifier := range n {
		notifier.ConversationArchived(ctx, conversationID, userID)
	}
}
