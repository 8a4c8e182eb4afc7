package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"eventflow/internal/db"
	"eventflow/internal/model"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 10 * time.Second
)

// ConversationRepository is the store contract for conversations. The mongo
// and memory implementations are interchangeable; call sites depend only on
// this interface, selected once at process start.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error)
	FindByEvent(ctx context.Context, eventID string) (*model.Conversation, error)
	FindInvitesFor(ctx context.Context, userID string) ([]model.Conversation, error)
	Save(ctx context.Context, conversation *model.Conversation) error
}

type mongoConversationRepository struct {
	repo   *db.Repository[model.Conversation]
	logger *zap.Logger
}

func NewMongoConversationRepository(con *mongo.Database, collection string, logger *zap.Logger) ConversationRepository {
	return &mongoConversationRepository{
		repo:   db.NewRepository[model.Conversation](con, collection),
		logger: logger,
	}
}

func (r *mongoConversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.repo.Create(ctx, *conversation); err != nil {
		r.logger.Error("failed to insert conversation",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err),
		)
		return fmt.Errorf("insert conversation failed: %w", err)
	}
	return nil
}

func (r *mongoConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	conversation, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch conversation failed: %w", err)
	}
	return conversation, nil
}

func (r *mongoConversationRepository) FindForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	// An equality match on an array field is a membership test in Mongo;
	// the memory store mirrors this shape exactly.
	filter := db.NewFilter().Eq("participants", userID).Build()

	conversations, err := r.repo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to list conversations for user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}
	sortConversations(conversations)
	return conversations, nil
}

func (r *mongoConversationRepository) FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("type", model.ConversationTypeDM).
		All("participants", []string{userA, userB}).
		Size("participants", 2).
		Build()

	candidates, err := r.repo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to find direct conversation",
			zap.String("user_a", userA),
			zap.String("user_b", userB),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find direct conversation failed: %w", err)
	}
	return earliest(candidates)
}

func (r *mongoConversationRepository) FindByEvent(ctx context.Context, eventID string) (*model.Conversation, error) {
	if eventID == "" {
		return nil, ErrNotFound
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("type", model.ConversationTypeGroup).
		Eq("event_id", eventID).
		Build()

	candidates, err := r.repo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to find event conversation",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("find event conversation failed: %w", err)
	}
	return earliest(candidates)
}

func (r *mongoConversationRepository) FindInvitesFor(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		ElemMatch("members", map[string]interface{}{
			"user_id": userID,
			"status":  model.MemberStatusPending,
		}).
		Build()

	conversations, err := r.repo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to list invites",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list invites failed: %w", err)
	}
	sortConversations(conversations)
	return conversations, nil
}

func (r *mongoConversationRepository) Save(ctx context.Context, conversation *model.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return ErrInvalidConversationID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.repo.Upsert(ctx, conversation.ID, *conversation); err != nil {
		r.logger.Error("failed to save conversation",
			zap.String("conversation_id", conversation.ID),
			zap.Error(err),
		)
		return fmt.Errorf("save conversation failed: %w", err)
	}
	return nil
}

// earliest resolves duplicate candidates from racy creation: the conversation
// with the lowest createdAt wins, id ascending as tie-break. Both store modes
// apply the same rule so FindDirect is stable across reads.
func earliest(candidates []model.Conversation) (*model.Conversation, error) {
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.CreatedAt.Before(winner.CreatedAt) ||
			(c.CreatedAt.Equal(winner.CreatedAt) && c.ID < winner.ID) {
			winner = c
		}
	}
	return &winner, nil
}

func sortConversations(conversations []model.Conversation) {
	sort.Slice(conversations, func(i, j int) bool {
		if !conversations[i].UpdatedAt.Equal(conversations[j].UpdatedAt) {
			return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
		}
		return conversations[i].ID < conversations[j].ID
	})
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
