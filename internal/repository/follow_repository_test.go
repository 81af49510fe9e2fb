package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
)

func TestFollowRepository_PairIsUnique(t *testing.T) {
	store := setupStore(t)
	repo := store.Follows()
	ctx := context.Background()

	f, err := repo.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, model.FollowStatusPending, f.Status)
	assert.Len(t, f.ID, 36)

	_, err = repo.Create(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrDuplicate)

	// 反方向是另一条边
	_, err = repo.Create(ctx, "b", "a")
	assert.NoError(t, err)
}

func TestFollowRepository_RejectsSelfFollow(t *testing.T) {
	store := setupStore(t)
	_, err := store.Follows().Create(context.Background(), "a", "a")
	assert.Error(t, err)
}

func TestFollowRepository_TransitionIsConditional(t *testing.T) {
	store := setupStore(t)
	repo := store.Follows()
	ctx := context.Background()

	f, err := repo.Create(ctx, "a", "b")
	require.NoError(t, err)

	got, err := repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.FollowStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)
	assert.Equal(t, f.ID, got.ID)

	// 已经不是 pending，第二次转换落空
	_, err = repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusRejected)
	assert.ErrorIs(t, err, ErrStale)

	_, err = repo.Transition(ctx, "missing", model.FollowStatusPending, model.FollowStatusRejected)
	assert.ErrorIs(t, err, ErrStale)
}

func TestFollowRepository_DeleteAcceptedOnly(t *testing.T) {
	store := setupStore(t)
	repo := store.Follows()
	ctx := context.Background()

	f, err := repo.Create(ctx, "a", "b")
	require.NoError(t, err)

	deleted, err := repo.DeleteAccepted(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, deleted, "pending edge must survive")

	_, err = repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusAccepted)
	require.NoError(t, err)

	deleted, err = repo.DeleteAccepted(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByPair(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFollowRepository_CountsAndLists(t *testing.T) {
	store := setupStore(t)
	repo := store.Follows()
	ctx := context.Background()

	accept := func(sender, receiver string) {
		f, err := repo.Create(ctx, sender, receiver)
		require.NoError(t, err)
		_, err = repo.Transition(ctx, f.ID, model.FollowStatusPending, model.FollowStatusAccepted)
		require.NoError(t, err)
	}
	accept("a", "x")
	accept("b", "x")
	accept("c", "x")
	accept("x", "a")
	_, err := repo.Create(ctx, "d", "x") // pending 不计数
	require.NoError(t, err)

	followers, err := repo.CountFollowers(ctx, "x")
	require.NoError(t, err)
	assert.EqualValues(t, 3, followers)

	following, err := repo.CountFollowing(ctx, "x")
	require.NoError(t, err)
	assert.EqualValues(t, 1, following)

	list, total, err := repo.ListFollowers(ctx, "x", 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 2)
	// 最近接受的在前
	assert.Equal(t, "c", list[0].SenderID)
	assert.Equal(t, "b", list[1].SenderID)

	list, _, err = repo.ListFollowers(ctx, "x", 2, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].SenderID)

	incoming, total, err := repo.ListIncomingPending(ctx, "x", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "d", incoming[0].SenderID)

	outgoing, _, err := repo.ListOutgoingPending(ctx, "d", 0, 10)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "x", outgoing[0].ReceiverID)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.Follows().Create(ctx, "a", "b"); err != nil {
			return err
		}
		return tx.Notifications().Create(ctx, &model.Notification{RecipientID: "b", ActorID: "a", Type: model.NotificationFollowRequest})
	})
	require.NoError(t, err)

	err = store.Transaction(ctx, func(tx Store) error {
		if err := tx.Notifications().Create(ctx, &model.Notification{RecipientID: "b", ActorID: "a", Type: model.NotificationFollowRequest}); err != nil {
			return err
		}
		_, err := tx.Follows().Create(ctx, "a", "b")
		return err
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	cnt, err := store.Notifications().UnreadCount(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt, "notification from the failed transaction must be rolled back")
}
