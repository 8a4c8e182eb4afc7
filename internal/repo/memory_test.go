package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eventflow/internal/model"
)

func newConversation(id, kind string, participants []string, createdAt time.Time) *model.Conversation {
	members := make([]model.Member, 0, len(participants))
	for _, p := range participants {
		members = append(members, model.Member{UserID: p, Status: model.MemberStatusAccepted})
	}
	return &model.Conversation{
		ID:           id,
		Type:         kind,
		Participants: participants,
		Members:      members,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestConversationFindByIDNotFound(t *testing.T) {
	repo := NewMemoryConversationRepository()
	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConversationSaveUpsert(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	conversation := newConversation("c1", model.ConversationTypeGroup, []string{"a"}, time.Now())
	conversation.Title = "before"
	req.NoError(repo.Save(ctx, conversation))

	conversation.Title = "after"
	conversation.Participants = append(conversation.Participants, "b")
	req.NoError(repo.Save(ctx, conversation))

	got, err := repo.FindByID(ctx, "c1")
	req.NoError(err)
	req.Equal("after", got.Title)
	req.Equal([]string{"a", "b"}, got.Participants)
}

func TestConversationFindForUser(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	now := time.Now()

	req.NoError(repo.Create(ctx, newConversation("c1", model.ConversationTypeDM, []string{"a", "b"}, now)))
	req.NoError(repo.Create(ctx, newConversation("c2", model.ConversationTypeGroup, []string{"a", "c"}, now)))
	req.NoError(repo.Create(ctx, newConversation("c3", model.ConversationTypeDM, []string{"b", "c"}, now)))

	forA, err := repo.FindForUser(ctx, "a")
	req.NoError(err)
	req.Len(forA, 2)

	forD, err := repo.FindForUser(ctx, "d")
	req.NoError(err)
	req.Empty(forD)
}

func TestFindDirectReconciliation(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// two records for the same pair, as racing ensures would leave behind
	req.NoError(repo.Create(ctx, newConversation("later", model.ConversationTypeDM, []string{"a", "b"}, base.Add(time.Second))))
	req.NoError(repo.Create(ctx, newConversation("earlier", model.ConversationTypeDM, []string{"a", "b"}, base)))

	winner, err := repo.FindDirect(ctx, "a", "b")
	req.NoError(err)
	req.Equal("earlier", winner.ID)

	// same createdAt: lowest id wins
	req.NoError(repo.Create(ctx, newConversation("aaa", model.ConversationTypeDM, []string{"x", "y"}, base)))
	req.NoError(repo.Create(ctx, newConversation("bbb", model.ConversationTypeDM, []string{"x", "y"}, base)))
	winner, err = repo.FindDirect(ctx, "x", "y")
	req.NoError(err)
	req.Equal("aaa", winner.ID)
}

func TestFindDirectRequiresExactPair(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryConversationRepository()
	ctx := context.Background()
	now := time.Now()

	req.NoError(repo.Create(ctx, newConversation("group", model.ConversationTypeGroup, []string{"a", "b"}, now)))
	_, err := repo.FindDirect(ctx, "a", "b")
	req.ErrorIs(err, ErrNotFound)
}

func TestFindInvitesFor(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryConversationRepository()
	ctx := context.Background()

	conversation := newConversation("c1", model.ConversationTypeGroup, []string{"a"}, time.Now())
	conversation.Members = append(conversation.Members,
		model.Member{UserID: "b", Status: model.MemberStatusPending},
		model.Member{UserID: "c", Status: model.MemberStatusDeclined},
	)
	req.NoError(repo.Create(ctx, conversation))

	invites, err := repo.FindInvitesFor(ctx, "b")
	req.NoError(err)
	req.Len(invites, 1)

	invites, err = repo.FindInvitesFor(ctx, "c")
	req.NoError(err)
	req.Empty(invites)
}

func seedMessages(t *testing.T, repo MessageRepository, conversationID string, n int) []string {
	t.Helper()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		err := repo.Insert(context.Background(), &model.ChatMessage{
			ID:             id,
			ConversationID: conversationID,
			SenderID:       "a",
			SenderName:     "Alice",
			Text:           "msg",
			Time:           "10:00",
			Status:         model.MessageStatusDelivered,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	return ids
}

func TestMessagePageNewestFirstAddressing(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryMessageRepository()
	ids := seedMessages(t, repo, "c1", 7)

	// page 1 holds the 3 newest, in chronological order
	page1, err := repo.Page(context.Background(), "c1", 1, 3)
	req.NoError(err)
	req.Equal([]string{ids[4], ids[5], ids[6]}, messageIDs(page1))

	page2, err := repo.Page(context.Background(), "c1", 2, 3)
	req.NoError(err)
	req.Equal([]string{ids[1], ids[2], ids[3]}, messageIDs(page2))

	// last partial page
	page3, err := repo.Page(context.Background(), "c1", 3, 3)
	req.NoError(err)
	req.Equal([]string{ids[0]}, messageIDs(page3))

	beyond, err := repo.Page(context.Background(), "c1", 4, 3)
	req.NoError(err)
	req.Empty(beyond)
}

func TestMessagePageLimitClamped(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryMessageRepository()
	ids := seedMessages(t, repo, "c1", 105)

	// an oversized limit clamps to the cap, same as the durable store
	page, err := repo.Page(context.Background(), "c1", 1, 500)
	req.NoError(err)
	req.Len(page, MaxHistoryPageSize)
	req.Equal(ids[5:], messageIDs(page))
}

func TestMessagePageDeterministic(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryMessageRepository()
	seedMessages(t, repo, "c1", 10)

	first, err := repo.Page(context.Background(), "c1", 2, 4)
	req.NoError(err)
	second, err := repo.Page(context.Background(), "c1", 2, 4)
	req.NoError(err)
	req.Equal(first, second)
}

func TestMessagePageUnknownConversationEmpty(t *testing.T) {
	repo := NewMemoryMessageRepository()
	page, err := repo.Page(context.Background(), "nope", 1, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}

func TestMarkReadForwardOnly(t *testing.T) {
	req := require.New(t)
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	seedMessages(t, repo, "c1", 3) // all from sender "a"
	req.NoError(repo.Insert(ctx, &model.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: "c1",
		SenderID:       "b",
		Text:           "from the reader",
		Status:         model.MessageStatusDelivered,
		CreatedAt:      time.Now(),
	}))

	modified, err := repo.MarkRead(ctx, "c1", "b")
	req.NoError(err)
	req.EqualValues(3, modified)

	// own message untouched, others read
	page, err := repo.Page(ctx, "c1", 1, 10)
	req.NoError(err)
	for _, m := range page {
		if m.SenderID == "b" {
			req.Equal(model.MessageStatusDelivered, m.Status)
		} else {
			req.Equal(model.MessageStatusRead, m.Status)
		}
	}

	// idempotent: nothing left to flip
	modified, err = repo.MarkRead(ctx, "c1", "b")
	req.NoError(err)
	req.Zero(modified)
}

func messageIDs(messages []model.ChatMessage) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}
