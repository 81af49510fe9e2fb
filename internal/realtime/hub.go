package realtime

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/d60-Lab/followgraph/pkg/logger"
)

// DefaultBufferSize 每个会话的事件缓冲
const DefaultBufferSize = 64

// Hub 进程内信箱：发给某账户的事件投递到该账户的全部会话
type Hub struct {
	bufferSize int

	mu        sync.RWMutex
	mailboxes map[string]map[*subscriber]struct{}

	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{bufferSize: bufferSize, mailboxes: make(map[string]map[*subscriber]struct{})}
}

type subscriber struct {
	hub       *Hub
	accountID string
	ch        chan Event
	resync    atomic.Bool
	closeOnce sync.Once
}

func (s *subscriber) Events() <-chan Event { return s.ch }

func (s *subscriber) Resync() bool { return s.resync.Swap(false) }

func (s *subscriber) Close() {
	s.closeOnce.Do(func() { s.hub.remove(s) })
}

func (h *Hub) Subscribe(accountID string) Subscription {
	sub := &subscriber{hub: h, accountID: accountID, ch: make(chan Event, h.bufferSize)}
	h.mu.Lock()
	box, ok := h.mailboxes[accountID]
	if !ok {
		box = make(map[*subscriber]struct{})
		h.mailboxes[accountID] = box
	}
	box[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// remove 在写锁下摘除并关闭通道，Publish 持读锁发送，不会向已关闭通道写入
func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	box := h.mailboxes[sub.accountID]
	if _, live := box[sub]; !live {
		// 已被 Shutdown 关闭
		return
	}
	delete(box, sub)
	if len(box) == 0 {
		delete(h.mailboxes, sub.accountID)
	}
	close(sub.ch)
}

// Shutdown 关闭全部会话，让长连接返回
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, box := range h.mailboxes {
		for sub := range box {
			close(sub.ch)
		}
		delete(h.mailboxes, id)
	}
}

func (h *Hub) Publish(accountID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	box := h.mailboxes[accountID]
	if len(box) == 0 {
		h.dropped.Add(1)
		logger.Debug("realtime: no subscriber, event dropped",
			zap.String("account", accountID), zap.String("event", ev.Name))
		return
	}
	for sub := range box {
		// 非阻塞发送；缓冲满则丢弃并标记该会话需要重新拉取
		select {
		case sub.ch <- ev:
			h.delivered.Add(1)
		default:
			sub.resync.Store(true)
			h.dropped.Add(1)
			logger.Warn("realtime: session buffer full, event dropped",
				zap.String("account", accountID), zap.String("event", ev.Name))
		}
	}
}

// Sessions 账户当前在线会话数
func (h *Hub) Sessions(accountID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.mailboxes[accountID])
}

// Stats 采样值：已投递 / 已丢弃事件数
func (h *Hub) Stats() (delivered, dropped int64) {
	return h.delivered.Load(), h.dropped.Load()
}
