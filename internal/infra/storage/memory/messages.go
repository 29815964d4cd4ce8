package memory

import (
	"context"
	"sort"
	"sync"

	domainmessaging "clozet/internal/domain/messaging"
)

// MessageRepository stores messages in memory. Useful for tests and local
// runs without a database.
type MessageRepository struct {
	mu    sync.RWMutex
	items map[domainmessaging.MessageID]*domainmessaging.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		items: make(map[domainmessaging.MessageID]*domainmessaging.Message),
	}
}

func (r *MessageRepository) Create(ctx context.Context, message *domainmessaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[message.ID] = cloneMessage(message)
	return nil
}

func (r *MessageRepository) ByID(ctx context.Context, id domainmessaging.MessageID) (*domainmessaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	message, ok := r.items[id]
	if !ok {
		return nil, domainmessaging.ErrNotFound
	}
	return cloneMessage(message), nil
}

func (r *MessageRepository) ByParticipant(ctx context.Context, userID string) ([]*domainmessaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainmessaging.Message, 0)
	for _, message := range r.items {
		if message.SenderID == userID || message.ReceiverID == userID {
			matches = append(matches, cloneMessage(message))
		}
	}
	sortByCreation(matches)
	return matches, nil
}

func (r *MessageRepository) All(ctx context.Context) ([]*domainmessaging.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domainmessaging.Message, 0, len(r.items))
	for _, message := range r.items {
		all = append(all, cloneMessage(message))
	}
	sortByCreation(all)
	return all, nil
}

func (r *MessageRepository) Update(ctx context.Context, message *domainmessaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[message.ID]; !ok {
		return domainmessaging.ErrNotFound
	}
	r.items[message.ID] = cloneMessage(message)
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id domainmessaging.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainmessaging.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneMessage(message *domainmessaging.Message) *domainmessaging.Message {
	copied := *message
	return &copied
}

func sortByCreation(messages []*domainmessaging.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

var _ domainmessaging.Repository = (*MessageRepository)(nil)
