package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/internal/realtime"
	"github.com/d60-Lab/followgraph/internal/repository"
	"github.com/d60-Lab/followgraph/pkg/database"
)

type fixture struct {
	store    *repository.GormStore
	hub      *realtime.Hub
	follows  FollowService
	notifs   NotificationService
	accounts repository.UserRepository
}

// newFixture 建立内存库与服务；channel 为 nil 时使用本地 Hub
func newFixture(t *testing.T, channel realtime.Channel) *fixture {
	t.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	store := repository.NewStore(db)
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })

	users := store.Users()
	require.NoError(t, users.Upsert(context.Background(),
		&model.User{ID: "alice", Handle: "alice", DisplayName: "Alice"},
		&model.User{ID: "bob", Handle: "bob", DisplayName: "Bob"},
		&model.User{ID: "carol", Handle: "carol", DisplayName: "Carol"},
	))

	hub := realtime.NewHub(16)
	if channel == nil {
		channel = hub
	}
	return &fixture{
		store:    store,
		hub:      hub,
		follows:  NewFollowService(store, users, channel),
		notifs:   NewNotificationService(store),
		accounts: users,
	}
}

func nextEvent(t *testing.T, sub realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for realtime event")
	}
	return realtime.Event{}
}

func noEvent(t *testing.T, sub realtime.Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected realtime event %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}
