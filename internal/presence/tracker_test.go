package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarkOnlineAndOffline(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	req.False(tracker.IsOnline("u1"))
	_, seen := tracker.LastSeen("u1")
	req.False(seen)

	tracker.MarkOnline("u1")
	req.True(tracker.IsOnline("u1"))

	before := time.Now()
	tracker.MarkOffline("u1")
	req.False(tracker.IsOnline("u1"))

	ts, seen := tracker.LastSeen("u1")
	req.True(seen)
	req.False(ts.Before(before))
}

func TestMarkOnlineIdempotent(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOnline("u1")
	tracker.MarkOnline("u1")
	require.Equal(t, []string{"u1"}, tracker.ListOnline())
}

func TestMarkOfflineWithoutOnline(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.MarkOffline("ghost")
	req.False(tracker.IsOnline("ghost"))
	_, seen := tracker.LastSeen("ghost")
	req.True(seen)
}

func TestLastSeenSurvivesReconnect(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	tracker.MarkOnline("u1")
	tracker.MarkOffline("u1")
	first, seen := tracker.LastSeen("u1")
	req.True(seen)

	tracker.MarkOnline("u1")
	again, seen := tracker.LastSeen("u1")
	req.True(seen)
	req.Equal(first, again)
}

func TestListOnlineSorted(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOnline("charlie")
	tracker.MarkOnline("alice")
	tracker.MarkOnline("bob")
	require.Equal(t, []string{"alice", "bob", "charlie"}, tracker.ListOnline())
}

func TestConcurrentTransitions(t *testing.T) {
	req := require.New(t)
	tracker := NewTracker()

	const users = 50
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a'+n%26)) + "-user"
			for j := 0; j < 100; j++ {
				tracker.MarkOnline(id)
				tracker.MarkOffline(id)
				tracker.MarkOnline(id)
			}
		}(i)
	}
	wg.Wait()

	// every worker ends with its user online; no lost updates
	for _, id := range tracker.ListOnline() {
		req.True(tracker.IsOnline(id))
	}
	req.Equal(26, len(tracker.ListOnline()))
}

func TestEmptyUserIDIgnored(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOnline("")
	tracker.MarkOffline("")
	require.Empty(t, tracker.ListOnline())
}
