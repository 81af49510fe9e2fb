package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// FollowStatus 关注关系状态。没有行即 not_following。
type FollowStatus string

const (
	FollowStatusPending  FollowStatus = "pending"
	FollowStatusAccepted FollowStatus = "accepted"
	FollowStatusRejected FollowStatus = "rejected"
)

// RelationStatus 对外呈现的关系状态（在 FollowStatus 基础上加上"无行"）
type RelationStatus string

const (
	RelationNotFollowing RelationStatus = "not_following"
	RelationPending      RelationStatus = "pending"
	RelationAccepted     RelationStatus = "accepted"
	RelationRejected     RelationStatus = "rejected"
)

var ErrInvalidFollowStatus = errors.New("invalid follow status")

func (s FollowStatus) Valid() bool {
	switch s {
	case FollowStatusPending, FollowStatusAccepted, FollowStatusRejected:
		return true
	}
	return false
}

// Relation 将边状态映射为对外关系状态
func (s FollowStatus) Relation() RelationStatus {
	switch s {
	case FollowStatusPending:
		return RelationPending
	case FollowStatusAccepted:
		return RelationAccepted
	case FollowStatusRejected:
		return RelationRejected
	}
	return RelationNotFollowing
}

// Follow 关注边（Sender 请求关注 Receiver）
type Follow struct {
	ID         string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	// (sender_id, receiver_id) 复合唯一键：同一有序对只有一条边
	SenderID   string       `json:"senderId" gorm:"type:varchar(64);not null;uniqueIndex:ux_follow_pair;index:idx_follow_sender_status;check:chk_follows_not_self,sender_id <> receiver_id"`
	ReceiverID string       `json:"receiverId" gorm:"type:varchar(64);not null;uniqueIndex:ux_follow_pair;index:idx_follow_receiver_status"`
	Status     FollowStatus `json:"status" gorm:"type:varchar(16);not null;index:idx_follow_sender_status;index:idx_follow_receiver_status;check:chk_follows_status,status IN ('pending','accepted','rejected')"`
	AcceptedAt *time.Time   `json:"acceptedAt,omitempty" gorm:"index"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (Follow) TableName() string { return "follows" }

// BeforeCreate 与表上的 check 约束一致：三态之内、不允许自关注
func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.SenderID == f.ReceiverID {
		return errors.New("sender and receiver must differ")
	}
	if !f.Status.Valid() {
		return ErrInvalidFollowStatus
	}
	return nil
}
