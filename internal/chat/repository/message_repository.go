package repository

import (
	"context"
	"time"

	"realtime_chat_service/internal/chat/domain"
	errprocess "realtime_chat_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository persists chat messages.
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	// FindPage returns up to limit live messages created before the cursor,
	// newest first. A nil before means from the latest message.
	FindPage(ctx context.Context, limit int64, before *time.Time) ([]domain.Message, error)
	// UpdateContent edits a live message owned by memberID and returns the
	// updated document.
	UpdateContent(ctx context.Context, messageID, memberID, content string, updatedAt time.Time) (*domain.Message, error)
	// MarkDeleted soft deletes a live message owned by memberID.
	MarkDeleted(ctx context.Context, messageID, memberID string) (*domain.Message, error)
	// FindByID returns a live message regardless of owner.
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
}

const messageCollection = "messages"

type mongoMessageRepository struct {
	col *mongo.Collection
}

// NewMongoMessageRepository creates a MessageRepository on the messages
// collection of the given database.
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{col: db.Collection(messageCollection)}
}

func (r *mongoMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if _, err := r.col.InsertOne(ctx, msg); err != nil {
		return errprocess.Set("insert message: " + err.Error())
	}
	return nil
}

func (r *mongoMessageRepository) FindPage(ctx context.Context, limit int64, before *time.Time) ([]domain.Message, error) {
	filter := bson.M{"is_deleted": false}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": *before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errprocess.Set("find messages: " + err.Error())
	}
	defer cur.Close(ctx)
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errprocess.Set("decode messages: " + err.Error())
	}
	return msgs, nil
}

func (r *mongoMessageRepository) UpdateContent(ctx context.Context, messageID, memberID, content string, updatedAt time.Time) (*domain.Message, error) {
	filter := bson.M{"_id": messageID, "user_id": memberID, "is_deleted": false}
	update := bson.M{"$set": bson.M{"content": content, "updated_at": updatedAt}}
	return r.findOneAndUpdate(ctx, messageID, filter, update)
}

func (r *mongoMessageRepository) MarkDeleted(ctx context.Context, messageID, memberID string) (*domain.Message, error) {
	filter := bson.M{"_id": messageID, "user_id": memberID, "is_deleted": false}
	update := bson.M{"$set": bson.M{"is_deleted": true}}
	return r.findOneAndUpdate(ctx, messageID, filter, update)
}

func (r *mongoMessageRepository) findOneAndUpdate(ctx context.Context, messageID string, filter, update bson.M) (*domain.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg domain.Message
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		// distinguish a missing message from someone else's message
		if _, ferr := r.FindByID(ctx, messageID); ferr == nil {
			return nil, domain.ErrNotMessageOwner
		}
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, errprocess.Set("update message: " + err.Error())
	}
	return &msg, nil
}

func (r *mongoMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.col.FindOne(ctx, bson.M{"_id": messageID, "is_deleted": false}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, errprocess.Set("find message: " + err.Error())
	}
	return &msg, nil
}
