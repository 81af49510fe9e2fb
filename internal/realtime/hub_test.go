package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/followgraph/internal/model"
)

func event(id uint) Event {
	return Event{Name: EventNewFollowRequest, Data: Payload{ID: id, Type: model.NotificationFollowRequest}}
}

func receive(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_FanOutToAllSessions(t *testing.T) {
	hub := NewHub(8)
	s1 := hub.Subscribe("alice")
	s2 := hub.Subscribe("alice")
	other := hub.Subscribe("bob")
	defer s1.Close()
	defer s2.Close()
	defer other.Close()

	hub.Publish("alice", event(1))

	assert.EqualValues(t, 1, receive(t, s1).Data.ID)
	assert.EqualValues(t, 1, receive(t, s2).Data.ID)
	select {
	case ev := <-other.Events():
		t.Fatalf("bob must not see alice's event: %+v", ev)
	default:
	}
}

func TestHub_PublishWithoutSubscriberIsDropped(t *testing.T) {
	hub := NewHub(8)
	hub.Publish("nobody", event(1))
	delivered, dropped := hub.Stats()
	assert.Zero(t, delivered)
	assert.EqualValues(t, 1, dropped)

	// 之后订阅不会收到历史事件
	sub := hub.Subscribe("nobody")
	defer sub.Close()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected replay: %+v", ev)
	default:
	}
}

func TestHub_OrderPerRecipient(t *testing.T) {
	hub := NewHub(16)
	sub := hub.Subscribe("alice")
	defer sub.Close()
	for i := uint(1); i <= 10; i++ {
		hub.Publish("alice", event(i))
	}
	for i := uint(1); i <= 10; i++ {
		assert.Equal(t, i, receive(t, sub).Data.ID)
	}
}

func TestHub_FullBufferMarksResync(t *testing.T) {
	hub := NewHub(1)
	sub := hub.Subscribe("alice")
	defer sub.Close()

	hub.Publish("alice", event(1))
	hub.Publish("alice", event(2)) // 缓冲已满，不阻塞

	assert.True(t, sub.Resync())
	assert.False(t, sub.Resync(), "resync flag is cleared once read")
	assert.EqualValues(t, 1, receive(t, sub).Data.ID)
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	hub := NewHub(8)
	sub := hub.Subscribe("alice")
	assert.Equal(t, 1, hub.Sessions("alice"))

	sub.Close()
	sub.Close() // 幂等
	assert.Equal(t, 0, hub.Sessions("alice"))

	_, ok := <-sub.Events()
	assert.False(t, ok)

	hub.Publish("alice", event(1)) // 不得 panic
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	hub := NewHub(8)
	a := hub.Subscribe("alice")
	b := hub.Subscribe("bob")

	hub.Shutdown()
	assert.Equal(t, 0, hub.Sessions("alice"))
	assert.Equal(t, 0, hub.Sessions("bob"))

	_, ok := <-a.Events()
	assert.False(t, ok)
	_, ok = <-b.Events()
	assert.False(t, ok)

	// 会话随后自行 Close 不得重复关闭通道
	a.Close()
	b.Close()
}

func TestHub_ConcurrentPublishAndClose(t *testing.T) {
	hub := NewHub(4)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		sub := hub.Subscribe("alice")
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Publish("alice", event(uint(j)))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Sessions("alice"))
}

func TestDiscard(t *testing.T) {
	Discard.Publish("alice", event(1))
	sub := Discard.Subscribe("alice")
	defer sub.Close()
	select {
	case <-sub.Events():
		t.Fatal("discard must never deliver")
	default:
	}
	assert.False(t, sub.Resync())
}
