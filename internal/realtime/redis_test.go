package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisChannel(t *testing.T, addr string) (*RedisChannel, *Hub) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub(16)
	ch := NewRedisChannel(rdb, hub, "test:mailbox:", 64, 2)
	stop, err := ch.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = stop(ctx)
	})
	return ch, hub
}

func TestRedisChannel_CrossInstanceDelivery(t *testing.T) {
	mr := miniredis.RunT(t)
	a, _ := setupRedisChannel(t, mr.Addr())
	b, _ := setupRedisChannel(t, mr.Addr())

	// 会话连在实例 b，事件从实例 a 发布
	sub := b.Subscribe("alice")
	defer sub.Close()

	a.Publish("alice", event(7))
	ev := receive(t, sub)
	assert.Equal(t, EventNewFollowRequest, ev.Name)
	assert.EqualValues(t, 7, ev.Data.ID)
}

func TestRedisChannel_PreservesOrderPerAccount(t *testing.T) {
	mr := miniredis.RunT(t)
	ch, _ := setupRedisChannel(t, mr.Addr())

	sub := ch.Subscribe("alice")
	defer sub.Close()
	for i := uint(1); i <= 5; i++ {
		ch.Publish("alice", event(i))
	}
	for i := uint(1); i <= 5; i++ {
		assert.Equal(t, i, receive(t, sub).Data.ID)
	}
}

func TestRedisChannel_PublishDoesNotBlockWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	ch, _ := setupRedisChannel(t, mr.Addr())
	mr.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			ch.Publish("alice", event(uint(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked")
	}
}
