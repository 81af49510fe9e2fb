package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/pkg/errcode"
)

func TestNotificationService_Create(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.notifs.Create(ctx, "bob", "alice", model.NotificationLike, "Alice liked your post")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, model.NotificationUnread, n.Status)

	_, err = f.notifs.Create(ctx, "bob", "alice", model.NotificationType("poke"), "")
	assert.ErrorIs(t, err, ErrInvalidNotification)
	_, err = f.notifs.Create(ctx, "", "alice", model.NotificationLike, "")
	assert.ErrorIs(t, err, ErrMissingAccount)
}

func TestNotificationService_ListAndUnreadCount(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 5; i++ {
		n, err := f.notifs.Create(ctx, "bob", "alice", model.NotificationComment, "c")
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := f.notifs.Create(ctx, "carol", "alice", model.NotificationMention, "m")
	require.NoError(t, err)

	require.NoError(t, f.notifs.MarkRead(ctx, ids[0], "bob"))

	page, err := f.notifs.List(ctx, "bob", "", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.EqualValues(t, 4, page.UnreadCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)
	assert.Equal(t, ids[3], page.Items[1].ID)
	assert.True(t, page.HasNext())
	assert.Equal(t, 3, page.TotalPages())

	read, err := f.notifs.List(ctx, "bob", "read", 1, 10)
	require.NoError(t, err)
	require.Len(t, read.Items, 1)
	assert.Equal(t, ids[0], read.Items[0].ID)
	// 未读数不受过滤影响
	assert.EqualValues(t, 4, read.UnreadCount)

	_, err = f.notifs.List(ctx, "bob", "archived", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)

	empty, err := f.notifs.List(ctx, "alice", "all", 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func TestNotificationService_MarkRead(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.notifs.Create(ctx, "bob", "alice", model.NotificationLike, "l")
	require.NoError(t, err)

	require.NoError(t, f.notifs.MarkRead(ctx, n.ID, "bob"))
	require.NoError(t, f.notifs.MarkRead(ctx, n.ID, "bob"), "marking read twice succeeds")

	count, err := f.notifs.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, count)

	err = f.notifs.MarkRead(ctx, n.ID, "carol")
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, errcode.CodePermissionDenied, errcode.CodeOf(err))

	err = f.notifs.MarkRead(ctx, 9999, "bob")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.notifs.Create(ctx, "bob", "alice", model.NotificationLike, "l")
		require.NoError(t, err)
	}
	_, err := f.notifs.Create(ctx, "carol", "alice", model.NotificationLike, "l")
	require.NoError(t, err)

	changed, err := f.notifs.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	changed, err = f.notifs.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, changed)

	count, err := f.notifs.UnreadCount(ctx, "carol")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNotificationService_Delete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	n, err := f.notifs.Create(ctx, "bob", "alice", model.NotificationLike, "l")
	require.NoError(t, err)

	assert.ErrorIs(t, f.notifs.Delete(ctx, n.ID, "alice"), ErrNotOwner)
	require.NoError(t, f.notifs.Delete(ctx, n.ID, "bob"))
	assert.ErrorIs(t, f.notifs.Delete(ctx, n.ID, "bob"), ErrNotificationNotFound)

	count, err := f.notifs.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
		wantOffset         int
	}{
		{0, 0, 1, DefaultPageSize, 0},
		{3, 10, 3, 10, 20},
		{1, 1000, 1, MaxPageSize, 0},
		{-2, -5, 1, DefaultPageSize, 0},
		{math.MaxInt, 50, MaxPage, 50, (MaxPage - 1) * 50},
	}
	for _, tt := range tests {
		p, s, o := normalizePage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantSize, s)
		assert.Equal(t, tt.wantOffset, o)
	}
}
