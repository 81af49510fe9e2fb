// Package realtime 按账户投递关系事件的实时通道。尽力而为：账户无在线会话时
// 事件直接丢弃，错过的事件不补发，通知流水才是权威记录。
package realtime

import (
	"time"

	"github.com/d60-Lab/followgraph/internal/model"
)

// 推给客户端的事件名
const (
	EventNewFollowRequest = "newFollowRequest"
	EventFollowAccepted   = "followAccepted"
	EventFollowRejected   = "followRejected"
)

// EventNameFor 通知类型对应的实时事件名
func EventNameFor(t model.NotificationType) (string, bool) {
	switch t {
	case model.NotificationFollowRequest:
		return EventNewFollowRequest, true
	case model.NotificationFollowAccepted:
		return EventFollowAccepted, true
	case model.NotificationFollowRejected:
		return EventFollowRejected, true
	}
	return "", false
}

// Payload 与通知内容一致，客户端无需再查询即可展示
type Payload struct {
	ID        uint                   `json:"id"`
	Type      model.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	Actor     model.PublicProfile    `json:"actor"`
	EdgeID    string                 `json:"edgeId,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type Event struct {
	Name string  `json:"event"`
	Data Payload `json:"data"`
}

// Channel 服务层依赖的信箱抽象
type Channel interface {
	// Publish 不阻塞、不返回错误
	Publish(accountID string, ev Event)
	// Subscribe 为账户信箱新增一个会话
	Subscribe(accountID string) Subscription
}

// Subscription 单个会话
type Subscription interface {
	Events() <-chan Event
	// Resync 返回并清除“缓冲满导致丢事件”标记，为真时客户端应重新拉取通知
	Resync() bool
	Close()
}

// Discard 丢弃所有事件，关闭推送时使用
var Discard Channel = discard{}

type discard struct{}

func (discard) Publish(string, Event) {}

func (discard) Subscribe(string) Subscription { return &idleSubscription{ch: make(chan Event)} }

type idleSubscription struct{ ch chan Event }

func (s *idleSubscription) Events() <-chan Event { return s.ch }
func (s *idleSubscription) Resync() bool         { return false }
func (s *idleSubscription) Close()               {}
