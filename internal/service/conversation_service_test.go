package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"eventflow/internal/model"
	"eventflow/internal/repo"
)

func newTestService(t *testing.T) (ConversationService, repo.ConversationRepository) {
	t.Helper()
	conversations := repo.NewMemoryConversationRepository()
	return NewConversationService(conversations, zap.NewNop()), conversations
}

func TestEnsureDirectIdempotent(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.EnsureDirect(ctx, "alice", "bob")
	req.NoError(err)
	req.True(created)
	req.Equal(model.ConversationTypeDM, first.Type)
	req.ElementsMatch([]string{"alice", "bob"}, first.Participants)

	// both members are accepted from the start for a DM
	for _, m := range first.Members {
		req.Equal(model.MemberStatusAccepted, m.Status)
	}

	// same result regardless of argument order
	second, created, err := svc.EnsureDirect(ctx, "bob", "alice")
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, second.ID)
}

func TestEnsureDirectRejectsSelfAndEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.EnsureDirect(ctx, "alice", "alice")
	require.ErrorIs(t, err, ErrSameUser)

	_, _, err = svc.EnsureDirect(ctx, "alice", "")
	require.ErrorIs(t, err, ErrInvalidUserID)
}

func TestEnsureDirectReconcilesDuplicates(t *testing.T) {
	req := require.New(t)
	svc, conversations := newTestService(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	// leftover from a racing ensure on the other side, created earlier
	racer := &model.Conversation{
		ID:           "racer",
		Type:         model.ConversationTypeDM,
		Participants: []string{"alice", "bob"},
		Members: []model.Member{
			{UserID: "alice", Status: model.MemberStatusAccepted},
			{UserID: "bob", Status: model.MemberStatusAccepted},
		},
		CreatedAt: base.Add(-time.Hour),
		UpdatedAt: base.Add(-time.Hour),
	}
	req.NoError(conversations.Create(ctx, racer))

	got, created, err := svc.EnsureDirect(ctx, "alice", "bob")
	req.NoError(err)
	req.False(created)
	req.Equal("racer", got.ID)

	// findDirect keeps returning the first-created winner
	again, err := svc.FindDirect(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal("racer", again.ID)
}

func TestCreateGroupMembership(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	// invites deduplicated, creator filtered out of the invite list
	group, err := svc.CreateGroup(ctx, "carol", []string{"dan", "erin", "dan", "carol", ""}, "weekend hike")
	req.NoError(err)
	req.Equal(model.ConversationTypeGroup, group.Type)
	req.Equal("weekend hike", group.Title)
	req.Equal([]string{"carol"}, group.Participants)
	req.Len(group.Members, 3)

	status, ok := group.MemberStatus("carol")
	req.True(ok)
	req.Equal(model.MemberStatusAccepted, status)

	for _, invited := range []string{"dan", "erin"} {
		status, ok := group.MemberStatus(invited)
		req.True(ok)
		req.Equal(model.MemberStatusPending, status)
	}
}

func TestCreateGroupRequiresTitle(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateGroup(context.Background(), "carol", []string{"dan"}, "")
	require.ErrorIs(t, err, ErrInvalidTitle)
}

func TestAcceptInvite(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "carol", []string{"dan"}, "book club")
	req.NoError(err)

	updated, changed, err := svc.Accept(ctx, group.ID, "dan")
	req.NoError(err)
	req.True(changed)
	req.True(updated.HasParticipant("dan"))

	status, _ := updated.MemberStatus("dan")
	req.Equal(model.MemberStatusAccepted, status)

	// second accept is a no-op, not an error
	_, changed, err = svc.Accept(ctx, group.ID, "dan")
	req.NoError(err)
	req.False(changed)

	// invite no longer listed
	invites, err := svc.ListInvitesFor(ctx, "dan")
	req.NoError(err)
	req.Empty(invites)
}

func TestDeclineInvite(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "carol", []string{"dan"}, "book club")
	req.NoError(err)

	updated, changed, err := svc.Decline(ctx, group.ID, "dan")
	req.NoError(err)
	req.True(changed)
	req.False(updated.HasParticipant("dan"))

	status, _ := updated.MemberStatus("dan")
	req.Equal(model.MemberStatusDeclined, status)

	// declining again is a no-op
	_, changed, err = svc.Decline(ctx, group.ID, "dan")
	req.NoError(err)
	req.False(changed)
}

func TestTransitionUnknownConversation(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.Accept(context.Background(), "missing", "dan")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestTransitionNonMemberNoOp(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "carol", []string{"dan"}, "book club")
	req.NoError(err)

	_, changed, err := svc.Accept(ctx, group.ID, "stranger")
	req.NoError(err)
	req.False(changed)
}

func TestEnsureEventGroup(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.EnsureEventGroup(ctx, "ev-42", "Launch Party", "carol", []string{"dan"})
	req.NoError(err)
	req.True(created)
	req.Equal("ev-42", first.EventID)

	second, created, err := svc.EnsureEventGroup(ctx, "ev-42", "Launch Party", "erin", nil)
	req.NoError(err)
	req.False(created)
	req.Equal(first.ID, second.ID)
}

func TestListForUser(t *testing.T) {
	req := require.New(t)
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.EnsureDirect(ctx, "alice", "bob")
	req.NoError(err)
	_, err = svc.CreateGroup(ctx, "alice", []string{"bob"}, "plans")
	req.NoError(err)

	forAlice, err := svc.ListForUser(ctx, "alice")
	req.NoError(err)
	req.Len(forAlice, 2)

	// bob has not accepted the group invite yet
	forBob, err := svc.ListForUser(ctx, "bob")
	req.NoError(err)
	req.Len(forBob, 1)
}
