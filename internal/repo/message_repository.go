package repo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"eventflow/internal/db"
	"eventflow/internal/model"
)

const (
	// DefaultHistoryPageSize bounds the history reply sent on join.
	DefaultHistoryPageSize = 50

	// MaxHistoryPageSize caps a requested page limit. Both store modes
	// clamp to it so the same request yields the same slice either way.
	MaxHistoryPageSize = 100
)

// MessageRepository is the store contract for chat messages. Pages are
// addressed newest-first (page 1 = most recent messages) and returned in
// chronological order for display. The same (conversationID, page, limit)
// triple yields the same slice as long as no new messages arrive.
type MessageRepository interface {
	Insert(ctx context.Context, message *model.ChatMessage) error
	Page(ctx context.Context, conversationID string, page, limit int64) ([]model.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID, readerID string) (int64, error)
}

type mongoMessageRepository struct {
	repo   *db.Repository[model.ChatMessage]
	logger *zap.Logger
}

func NewMongoMessageRepository(con *mongo.Database, collection string, logger *zap.Logger) MessageRepository {
	return &mongoMessageRepository{
		repo:   db.NewRepository[model.ChatMessage](con, collection),
		logger: logger,
	}
}

func (r *mongoMessageRepository) Insert(ctx context.Context, message *model.ChatMessage) error {
	if message == nil {
		return ErrInvalidMessage
	}
	if message.ConversationID == "" {
		return ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.repo.Create(ctx, *message); err != nil {
		r.logger.Error("failed to insert message",
			zap.String("message_id", message.ID),
			zap.String("conversation_id", message.ConversationID),
			zap.Error(err),
		)
		return fmt.Errorf("insert message failed: %w", err)
	}
	return nil
}

func (r *mongoMessageRepository) Page(ctx context.Context, conversationID string, page, limit int64) ([]model.ChatMessage, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversationID
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryPageSize
	}
	if limit > MaxHistoryPageSize {
		limit = MaxHistoryPageSize
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()

	result, err := r.repo.FindWithPagination(ctx, filter, db.PaginationParams{
		Page:     page,
		PageSize: limit,
		SortBy:   "created_at",
		SortDesc: true,
	})
	if err != nil {
		r.logger.Error("failed to page messages",
			zap.String("conversation_id", conversationID),
			zap.Int64("page", page),
			zap.Error(err),
		)
		return nil, fmt.Errorf("page messages failed: %w", err)
	}

	// Fetched newest-first; restore chronological order for display.
	messages := result.Data
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *mongoMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if conversationID == "" {
		return 0, ErrInvalidConversationID
	}
	if readerID == "" {
		return 0, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	// Only forward transitions, and never for the reader's own messages.
	filter := db.NewFilter().
		Eq("conversation_id", conversationID).
		Ne("sender_id", readerID).
		Eq("status", model.MessageStatusDelivered).
		Build()

	result, err := r.repo.UpdateMany(ctx, filter, map[string]interface{}{
		"status": model.MessageStatusRead,
	})
	if err != nil {
		r.logger.Error("failed to mark messages read",
			zap.String("conversation_id", conversationID),
			zap.String("reader_id", readerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark read failed: %w", err)
	}
	return result.ModifiedCount, nil
}
