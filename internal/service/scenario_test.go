package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/pkg/errcode"
)

// 所有客户端状态都能只靠存储重建：推送开启与关闭时结果一致
func TestLifecycleScenarios(t *testing.T) {
	for _, tc := range []struct {
		name    string
		channel realtime.Channel
	}{
		{"push", nil},
		{"no-push", realtime.Discard},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("request accept unfollow", func(t *testing.T) { runAcceptScenario(t, newFixture(t, tc.channel)) })
			t.Run("reject then request again", func(t *testing.T) { runRejectScenario(t, newFixture(t, tc.channel)) })
			t.Run("concurrent request", func(t *testing.T) { runConcurrentScenario(t, newFixture(t, tc.channel)) })
		})
	}
}

func status(t *testing.T, f *fixture, viewer, target string) *FollowResult {
	t.Helper()
	st, err := f.follows.GetStatus(context.Background(), viewer, target)
	require.NoError(t, err)
	return st
}

func followers(t *testing.T, f *fixture, account string) int64 {
	t.Helper()
	c, err := f.follows.GetCounts(context.Background(), account)
	require.NoError(t, err)
	return c.Followers
}

func runAcceptScenario(t *testing.T, f *fixture) {
	ctx := context.Background()

	res, err := f.follows.RequestFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationPending, res.Status)
	assert.Equal(t, model.RelationPending, status(t, f, "alice", "bob").Status)

	bobUnread := unread(t, f, "bob")
	require.Len(t, bobUnread, 1)
	assert.Equal(t, model.NotificationFollowRequest, bobUnread[0].Type)
	assert.Equal(t, "alice", bobUnread[0].ActorID)

	res, err = f.follows.AcceptRequest(ctx, res.EdgeID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationAccepted, res.Status)
	assert.Equal(t, model.RelationAccepted, status(t, f, "alice", "bob").Status)

	aliceUnread := unread(t, f, "alice")
	require.Len(t, aliceUnread, 1)
	assert.Equal(t, model.NotificationFollowAccepted, aliceUnread[0].Type)
	assert.Equal(t, "bob", aliceUnread[0].ActorID)
	assert.EqualValues(t, 1, followers(t, f, "bob"))

	res, err = f.follows.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationNotFollowing, res.Status)
	assert.Equal(t, model.RelationNotFollowing, status(t, f, "alice", "bob").Status)
	assert.Zero(t, followers(t, f, "bob"))

	all := func(account string) int64 {
		p, err := f.notifs.List(ctx, account, "all", 1, 100)
		require.NoError(t, err)
		return p.Total
	}
	assert.EqualValues(t, 1, all("alice"))
	assert.EqualValues(t, 1, all("bob"))
}

func runRejectScenario(t *testing.T, f *fixture) {
	ctx := context.Background()

	first, err := f.follows.RequestFollow(ctx, "alice", "bob")
	require.NoError(t, err)

	res, err := f.follows.RejectRequest(ctx, first.EdgeID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationRejected, res.Status)
	assert.Equal(t, model.RelationRejected, status(t, f, "alice", "bob").Status)
	assert.Zero(t, followers(t, f, "bob"))

	again, err := f.follows.RequestFollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.RelationPending, again.Status)
	assert.Equal(t, first.EdgeID, again.EdgeID)
	st := status(t, f, "alice", "bob")
	assert.Equal(t, model.RelationPending, st.Status)
	assert.Equal(t, first.EdgeID, st.EdgeID)

	aliceUnread := unread(t, f, "alice")
	require.Len(t, aliceUnread, 1)
	assert.Equal(t, model.NotificationFollowRejected, aliceUnread[0].Type)

	// 最新在前：再次请求晚于拒绝通知
	bobUnread := unread(t, f, "bob")
	require.Len(t, bobUnread, 2)
	assert.Equal(t, model.NotificationFollowRequest, bobUnread[0].Type)
	assert.Greater(t, bobUnread[0].ID, aliceUnread[0].ID)

	incoming, err := f.follows.ListIncomingRequests(ctx, "bob", 1, 10)
	require.NoError(t, err)
	require.Len(t, incoming.Items, 1)
	assert.Equal(t, first.EdgeID, incoming.Items[0].EdgeID)
}

func runConcurrentScenario(t *testing.T, f *fixture) {
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 2)
	results := make([]*FollowResult, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.follows.RequestFollow(ctx, "alice", "bob")
		}(i)
	}
	wg.Wait()

	var pending, conflict int
	for i := range errs {
		switch {
		case errs[i] == nil && results[i].Status == model.RelationPending:
			pending++
		case errcode.CodeOf(errs[i]) == errcode.CodeConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, conflict)
	assert.Len(t, unread(t, f, "bob"), 1)
}
