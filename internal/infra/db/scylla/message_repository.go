package scylla

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	domainmessaging "clozet/internal/domain/messaging"
)

const messageColumns = "id, sender_id, receiver_id, listing_id, content, created_at, is_read, archived_by_sender, archived_by_receiver"

// MessageRepository wraps Scylla queries over the messages table.
type MessageRepository struct {
	session *gocql.Session
}

func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

func (r *MessageRepository) Create(ctx context.Context, message *domainmessaging.Message) error {
	id, err := gocql.ParseUUID(string(message.ID))
	if err != nil {
		return err
	}
	return r.session.
		Query(`INSERT INTO messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, message.SenderID, message.ReceiverID, message.ListingID, message.Content,
			message.CreatedAt, message.IsRead, message.ArchivedBySender, message.ArchivedByReceiver).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

func (r *MessageRepository) ByID(ctx context.Context, id domainmessaging.MessageID) (*domainmessaging.Message, error) {
	uuid, err := gocql.ParseUUID(strings.TrimSpace(string(id)))
	if err != nil {
		return nil, domainmessaging.ErrNotFound
	}
	var row messageRow
	if err := r.session.
		Query(`SELECT `+messageColumns+` FROM messages WHERE id = ? LIMIT 1`, uuid).
		WithContext(ctx).
		Consistency(gocql.One).
		Scan(row.scanTargets()...); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, domainmessaging.ErrNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// ByParticipant runs one filtered query per side; CQL has no OR across
// columns. Rows where the user is both sender and receiver come back from
// both queries and are deduplicated by id.
func (r *MessageRepository) ByParticipant(ctx context.Context, userID string) ([]*domainmessaging.Message, error) {
	sent, err := r.query(ctx, `SELECT `+messageColumns+` FROM messages WHERE sender_id = ? ALLOW FILTERING`, userID)
	if err != nil {
		return nil, err
	}
	received, err := r.query(ctx, `SELECT `+messageColumns+` FROM messages WHERE receiver_id = ? ALLOW FILTERING`, userID)
	if err != nil {
		return nil, err
	}
	merged := append(sent, received...)
	seen := make(map[domainmessaging.MessageID]struct{}, len(merged))
	messages := make([]*domainmessaging.Message, 0, len(merged))
	for _, m := range merged {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		messages = append(messages, m)
	}
	sortByCreation(messages)
	return messages, nil
}

func (r *MessageRepository) All(ctx context.Context) ([]*domainmessaging.Message, error) {
	messages, err := r.query(ctx, `SELECT `+messageColumns+` FROM messages`)
	if err != nil {
		return nil, err
	}
	sortByCreation(messages)
	return messages, nil
}

func (r *MessageRepository) Update(ctx context.Context, message *domainmessaging.Message) error {
	id, err := gocql.ParseUUID(string(message.ID))
	if err != nil {
		return domainmessaging.ErrNotFound
	}
	if _, err := r.ByID(ctx, message.ID); err != nil {
		return err
	}
	return r.session.
		Query(`UPDATE messages SET content = ?, is_read = ?, archived_by_sender = ?, archived_by_receiver = ? WHERE id = ?`,
			message.Content, message.IsRead, message.ArchivedBySender, message.ArchivedByReceiver, id).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

func (r *MessageRepository) Delete(ctx context.Context, id domainmessaging.MessageID) error {
	uuid, err := gocql.ParseUUID(string(id))
	if err != nil {
		return domainmessaging.ErrNotFound
	}
	if _, err := r.ByID(ctx, id); err != nil {
		return err
	}
	return r.session.
		Query(`DELETE FROM messages WHERE id = ?`, uuid).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

func (r *MessageRepository) query(ctx context.Context, cql string, values ...any) ([]*domainmessaging.Message, error) {
	iter := r.session.
		Query(cql, values...).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()
	messages := make([]*domainmessaging.Message, 0)
	var row messageRow
	for iter.Scan(row.scanTargets()...) {
		messages = append(messages, row.toEntity())
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return messages, nil
}

type messageRow struct {
	ID                 gocql.UUID
	SenderID           string
	ReceiverID         string
	ListingID          string
	Content            string
	CreatedAt          time.Time
	IsRead             bool
	ArchivedBySender   bool
	ArchivedByReceiver bool
}

func (r *messageRow) scanTargets() []any {
	return []any{&r.ID, &r.SenderID, &r.ReceiverID, &r.ListingID, &r.Content, &r.CreatedAt, &r.IsRead, &r.ArchivedBySender, &r.ArchivedByReceiver}
}

func (r *messageRow) toEntity() *domainmessaging.Message {
	return &domainmessaging.Message{
		ID:                 domainmessaging.MessageID(r.ID.String()),
		SenderID:           r.SenderID,
		ReceiverID:         r.ReceiverID,
		ListingID:          r.ListingID,
		Content:            r.Content,
		CreatedAt:          r.CreatedAt.UTC(),
		IsRead:             r.IsRead,
		ArchivedBySender:   r.ArchivedBySender,
		ArchivedByReceiver: r.ArchivedByReceiver,
	}
}

func sortByCreation(messages []*domainmessaging.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}

var _ domainmessaging.Repository = (*MessageRepository)(nil)
