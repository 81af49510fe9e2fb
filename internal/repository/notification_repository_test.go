package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
)

func TestNotificationRepository_ListNewestFirstWithFilter(t *testing.T) {
	store := setupStore(t)
	repo := store.Notifications()
	ctx := context.Background()

	var ids []uint
	for _, typ := range []model.NotificationType{model.NotificationFollowRequest, model.NotificationFollowAccepted, model.NotificationFollowRejected} {
		n := &model.Notification{RecipientID: "r", ActorID: "a", Type: typ, Message: string(typ)}
		require.NoError(t, repo.Create(ctx, n))
		assert.Equal(t, model.NotificationUnread, n.Status)
		ids = append(ids, n.ID)
	}
	require.NoError(t, repo.Create(ctx, &model.Notification{RecipientID: "other", ActorID: "a", Type: model.NotificationLike}))

	require.NoError(t, repo.MarkRead(ctx, ids[0]))

	all, total, err := repo.List(ctx, "r", "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	unread, total, err := repo.List(ctx, "r", model.NotificationUnread, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, unread, 2)

	read, total, err := repo.List(ctx, "r", model.NotificationRead, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, ids[0], read[0].ID)

	page, total, err := repo.List(ctx, "r", "", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)
}

func TestNotificationRepository_ReadStateAndDelete(t *testing.T) {
	store := setupStore(t)
	repo := store.Notifications()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Notification{RecipientID: "r", ActorID: "a", Type: model.NotificationComment}))
	}
	cnt, err := repo.UnreadCount(ctx, "r")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)

	n, err := repo.MarkAllRead(ctx, "r")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.MarkAllRead(ctx, "r")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	cnt, err = repo.UnreadCount(ctx, "r")
	require.NoError(t, err)
	assert.Zero(t, cnt)

	list, _, err := repo.List(ctx, "r", "", 0, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, list[0].ID))
	_, err = repo.GetByID(ctx, list[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
