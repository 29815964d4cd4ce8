package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainmessaging "clozet/internal/domain/messaging"
)

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection("messages")}
}

func (r *MessageRepository) Create(ctx context.Context, message *domainmessaging.Message) error {
	_, err := r.col.InsertOne(ctx, newMessageDocument(message))
	return err
}

func (r *MessageRepository) ByID(ctx context.Context, id domainmessaging.MessageID) (*domainmessaging.Message, error) {
	var doc messageDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainmessaging.ErrNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *MessageRepository) ByParticipant(ctx context.Context, userID string) ([]*domainmessaging.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
	return r.find(ctx, filter)
}

func (r *MessageRepository) All(ctx context.Context) ([]*domainmessaging.Message, error) {
	return r.find(ctx, bson.M{})
}

func (r *MessageRepository) Update(ctx context.Context, message *domainmessaging.Message) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": string(message.ID)}, newMessageDocument(message))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domainmessaging.ErrNotFound
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id domainmessaging.MessageID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainmessaging.ErrNotFound
	}
	return nil
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M) ([]*domainmessaging.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]*domainmessaging.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		messages = append(messages, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

type messageDocument struct {
	ID                 string `bson:"_id"`
	SenderID           string `bson:"sender_id"`
	ReceiverID         string `bson:"receiver_id"`
	ListingID          string `bson:"listing_id,omitempty"`
	Content            string `bson:"content"`
	CreatedAt          int64  `bson:"created_at"`
	IsRead             bool   `bson:"is_read"`
	ArchivedBySender   bool   `bson:"archived_by_sender"`
	ArchivedByReceiver bool   `bson:"archived_by_receiver"`
}

func newMessageDocument(m *domainmessaging.Message) messageDocument {
	return messageDocument{
		ID:                 string(m.ID),
		SenderID:           m.SenderID,
		ReceiverID:         m.ReceiverID,
		ListingID:          m.ListingID,
		Content:            m.Content,
		CreatedAt:          m.CreatedAt.UnixMilli(),
		IsRead:             m.IsRead,
		ArchivedBySender:   m.ArchivedBySender,
		ArchivedByReceiver: m.ArchivedByReceiver,
	}
}

func (d messageDocument) toEntity() *domainmessaging.Message {
	return &domainmessaging.Message{
		ID:                 domainmessaging.MessageID(d.ID),
		SenderID:           d.SenderID,
		ReceiverID:         d.ReceiverID,
		ListingID:          d.ListingID,
		Content:            d.Content,
		CreatedAt:          time.UnixMilli(d.CreatedAt).UTC(),
		IsRead:             d.IsRead,
		ArchivedBySender:   d.ArchivedBySender,
		ArchivedByReceiver: d.ArchivedByReceiver,
	}
}

var _ domainmessaging.Repository = (*MessageRepository)(nil)
