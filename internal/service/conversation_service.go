package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"eventflow/internal/model"
	"eventflow/internal/repo"
)

var (
	ErrSameUser      = errors.New("cannot open a DM with yourself")
	ErrInvalidUserID = errors.New("invalid user ID")
	ErrInvalidTitle  = errors.New("group title is required")
)

// ConversationService implements conversation and membership rules on top
// of the store contract. All id pairs for DMs are order-independent.
type ConversationService interface {
	Get(ctx context.Context, conversationID string) (*model.Conversation, error)
	FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error)
	EnsureDirect(ctx context.Context, userA, userB string) (*model.Conversation, bool, error)
	CreateGroup(ctx context.Context, creatorID string, memberIDs []string, title string) (*model.Conversation, error)
	EnsureEventGroup(ctx context.Context, eventID, title, creatorID string, memberIDs []string) (*model.Conversation, bool, error)
	ListInvitesFor(ctx context.Context, userID string) ([]model.Conversation, error)
	Accept(ctx context.Context, conversationID, userID string) (*model.Conversation, bool, error)
	Decline(ctx context.Context, conversationID, userID string) (*model.Conversation, bool, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
}

type conversationService struct {
	conversations repo.ConversationRepository
	logger        *zap.Logger
	now           func() time.Time
}

func NewConversationService(conversations repo.ConversationRepository, logger *zap.Logger) ConversationService {
	return &conversationService{
		conversations: conversations,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *conversationService) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	return s.conversations.FindByID(ctx, conversationID)
}

func (s *conversationService) FindDirect(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	a, b, err := sortPair(userA, userB)
	if err != nil {
		return nil, err
	}
	return s.conversations.FindDirect(ctx, a, b)
}

// EnsureDirect finds or creates the DM for the unordered pair. Two racing
// calls may both insert; the duplicate is reconciled by re-reading, where
// the earliest-created conversation wins deterministically.
func (s *conversationService) EnsureDirect(ctx context.Context, userA, userB string) (*model.Conversation, bool, error) {
	a, b, err := sortPair(userA, userB)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.conversations.FindDirect(ctx, a, b)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	now := s.now()
	conversation := &model.Conversation{
		ID:           uuid.NewString(),
		Type:         model.ConversationTypeDM,
		Participants: []string{a, b},
		Members: []model.Member{
			{UserID: a, Status: model.MemberStatusAccepted},
			{UserID: b, Status: model.MemberStatusAccepted},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, false, fmt.Errorf("create dm: %w", err)
	}

	// Re-read so both sides of a concurrent ensure settle on the same record.
	winner, err := s.conversations.FindDirect(ctx, a, b)
	if err != nil {
		return nil, false, err
	}

	created := winner.ID == conversation.ID
	if !created {
		s.logger.Info("duplicate dm reconciled",
			zap.String("kept", winner.ID),
			zap.String("discarded", conversation.ID),
		)
	}
	return winner, created, nil
}

// CreateGroup creates a group conversation. The creator is accepted
// immediately; everyone else starts pending and joins participants only
// after accepting.
func (s *conversationService) CreateGroup(ctx context.Context, creatorID string, memberIDs []string, title string) (*model.Conversation, error) {
	if creatorID == "" {
		return nil, ErrInvalidUserID
	}
	if title == "" {
		return nil, ErrInvalidTitle
	}

	now := s.now()
	conversation := &model.Conversation{
		ID:           uuid.NewString(),
		Type:         model.ConversationTypeGroup,
		Title:        title,
		Participants: []string{creatorID},
		Members:      buildMembers(creatorID, memberIDs),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.logger.Info("group conversation created",
		zap.String("conversation_id", conversation.ID),
		zap.String("creator_id", creatorID),
		zap.Int("invited", len(conversation.Members)-1),
	)
	return conversation, nil
}

// EnsureEventGroup finds or creates the group conversation scoped to an
// event. First access to a chat-enabled event creates the room.
func (s *conversationService) EnsureEventGroup(ctx context.Context, eventID, title, creatorID string, memberIDs []string) (*model.Conversation, bool, error) {
	if eventID == "" {
		return nil, false, errors.New("event ID is required")
	}
	if creatorID == "" {
		return nil, false, ErrInvalidUserID
	}

	existing, err := s.conversations.FindByEvent(ctx, eventID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	now := s.now()
	conversation := &model.Conversation{
		ID:           uuid.NewString(),
		Type:         model.ConversationTypeGroup,
		Title:        title,
		Participants: []string{creatorID},
		Members:      buildMembers(creatorID, memberIDs),
		EventID:      eventID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.conversations.Create(ctx, conversation); err != nil {
		return nil, false, fmt.Errorf("create event group: %w", err)
	}

	// Same reconciliation as DMs: racing creators settle on the earliest.
	winner, err := s.conversations.FindByEvent(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	return winner, winner.ID == conversation.ID, nil
}

func (s *conversationService) ListInvitesFor(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.conversations.FindInvitesFor(ctx, userID)
}

func (s *conversationService) Accept(ctx context.Context, conversationID, userID string) (*model.Conversation, bool, error) {
	return s.transition(ctx, conversationID, userID, model.MemberStatusAccepted)
}

func (s *conversationService) Decline(ctx context.Context, conversationID, userID string) (*model.Conversation, bool, error) {
	return s.transition(ctx, conversationID, userID, model.MemberStatusDeclined)
}

func (s *conversationService) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.conversations.FindForUser(ctx, userID)
}

// transition moves a pending membership to accepted or declined. A no-op
// when the member entry is missing or not currently pending.
func (s *conversationService) transition(ctx context.Context, conversationID, userID, status string) (*model.Conversation, bool, error) {
	if userID == "" {
		return nil, false, ErrInvalidUserID
	}

	conversation, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, false, err
	}

	changed := false
	for i := range conversation.Members {
		if conversation.Members[i].UserID != userID {
			continue
		}
		if conversation.Members[i].Status != model.MemberStatusPending {
			return conversation, false, nil
		}
		conversation.Members[i].Status = status
		changed = true
		break
	}
	if !changed {
		return conversation, false, nil
	}

	if status == model.MemberStatusAccepted && !conversation.HasParticipant(userID) {
		conversation.Participants = append(conversation.Participants, userID)
	}
	conversation.UpdatedAt = s.now()

	if err := s.conversations.Save(ctx, conversation); err != nil {
		return nil, false, fmt.Errorf("save membership transition: %w", err)
	}
	return conversation, true, nil
}

func buildMembers(creatorID string, memberIDs []string) []model.Member {
	invited := lo.Uniq(lo.Filter(memberIDs, func(id string, _ int) bool {
		return id != "" && id != creatorID
	}))

	members := make([]model.Member, 0, len(invited)+1)
	members = append(members, model.Member{UserID: creatorID, Status: model.MemberStatusAccepted})
	for _, id := range invited {
		members = append(members, model.Member{UserID: id, Status: model.MemberStatusPending})
	}
	return members
}

func sortPair(userA, userB string) (string, string, error) {
	if userA == "" || userB == "" {
		return "", "", ErrInvalidUserID
	}
	if userA == userB {
		return "", "", ErrSameUser
	}
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair[0], pair[1], nil
}
