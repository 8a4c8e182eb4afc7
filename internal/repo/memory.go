package repo

import (
	"context"
	"sort"
	"sync"

	"eventflow/internal/model"
)

// In-memory store mode. Filter and pagination semantics mirror the mongo
// implementations document for document, so routes written against the
// repository interfaces behave identically without a database.

type memoryConversationRepository struct {
	mu   sync.RWMutex
	byID map[string]model.Conversation
}

func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{
		byID: make(map[string]model.Conversation),
	}
}

func cloneConversation(c model.Conversation) model.Conversation {
	out := c
	out.Participants = append([]string(nil), c.Participants...)
	out.Members = append([]model.Member(nil), c.Members...)
	return out
}

func (r *memoryConversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return ErrInvalidConversationID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conversation.ID] = cloneConversation(*conversation)
	return nil
}

func (r *memoryConversationRepository) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return nil, ErrInvalidConversationID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneConversation(c)
	return &out, nil
}

func (r *memoryConversationRepository) FindForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	conversations := r.filter(func(c *model.Conversation) bool {
		return c.HasParticipant(userID)
	})
	sortConversations(conversations)
	return conversations, nil
}

func (r *memoryConversationRepository) FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidUserID
	}

	candidates := r.filter(func(c *model.Conversation) bool {
		return c.Type == model.ConversationTypeDM &&
			len(c.Participants) == 2 &&
			c.HasParticipant(userA) &&
			c.HasParticipant(userB)
	})
	return earliest(candidates)
}

func (r *memoryConversationRepository) FindByEvent(ctx context.Context, eventID string) (*model.Conversation, error) {
	if eventID == "" {
		return nil, ErrNotFound
	}

	candidates := r.filter(func(c *model.Conversation) bool {
		return c.Type == model.ConversationTypeGroup && c.EventID == eventID
	})
	return earliest(candidates)
}

func (r *memoryConversationRepository) FindInvitesFor(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	conversations := r.filter(func(c *model.Conversation) bool {
		status, ok := c.MemberStatus(userID)
		return ok && status == model.MemberStatusPending
	})
	sortConversations(conversations)
	return conversations, nil
}

func (r *memoryConversationRepository) Save(ctx context.Context, conversation *model.Conversation) error {
	if conversation == nil || conversation.ID == "" {
		return ErrInvalidConversationID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conversation.ID] = cloneConversation(*conversation)
	return nil
}

func (r *memoryConversationRepository) filter(keep func(*model.Conversation) bool) []model.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Conversation
	for id := range r.byID {
		c := r.byID[id]
		if keep(&c) {
			out = append(out, cloneConversation(c))
		}
	}
	return out
}

type memoryMessageRepository struct {
	mu     sync.RWMutex
	byConv map[string][]model.ChatMessage
}

func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessageRepository{
		byConv: make(map[string][]model.ChatMessage),
	}
}

func (r *memoryMessageRepository) Insert(ctx context.Context, message *model.ChatMessage) error {
	if message == nil {
		return ErrInvalidMessage
	}
	if message.ConversationID == "" {
		return ErrInvalidConversationID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byConv[message.ConversationID] = append(r.byConv[message.ConversationID], *message)
	return nil
}

func (r *memoryMessageRepository) Page(ctx context.Context, conversationID string, page, limit int64) ([]model.ChatMessage, error) {
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

	r.mu.RLock()
	log := append([]model.ChatMessage(nil), r.byConv[conversationID]...)
	r.mu.RUnlock()

	// Same ordering rule as the durable store: created_at with id tie-break.
	sort.SliceStable(log, func(i, j int) bool {
		if !log[i].CreatedAt.Equal(log[j].CreatedAt) {
			return log[i].CreatedAt.Before(log[j].CreatedAt)
		}
		return log[i].ID < log[j].ID
	})

	// Page 1 is the newest slice of the chronological log.
	end := int64(len(log)) - (page-1)*limit
	if end <= 0 {
		return nil, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return log[start:end], nil
}

func (r *memoryMessageRepository) MarkRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if conversationID == "" {
		return 0, ErrInvalidConversationID
	}
	if readerID == "" {
		return 0, ErrInvalidUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	log := r.byConv[conversationID]
	for i := range log {
		if log[i].SenderID != readerID && log[i].Status == model.MessageStatusDelivered {
			log[i].Status = model.MessageStatusRead
			modified++
		}
	}
	return modified, nil
}
