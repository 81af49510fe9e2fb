package model

import "time"

type NotificationType string

const (
	NotificationFollowRequest  NotificationType = "follow_request"
	NotificationFollowAccepted NotificationType = "follow_accepted"
	NotificationFollowRejected NotificationType = "follow_rejected"
	NotificationLike           NotificationType = "like"
	NotificationComment        NotificationType = "comment"
	NotificationMention        NotificationType = "mention"
)

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

// Notification 通知流水，按接收者追加
type Notification struct {
	// 自增主键，同一时间戳内的先后以 ID 为准
	ID          uint               `json:"id" gorm:"primaryKey;autoIncrement"`
	RecipientID string             `json:"recipientId" gorm:"type:varchar(64);not null;index:idx_notif_recipient_status"`
	ActorID     string             `json:"actorId" gorm:"type:varchar(64);not null"`
	Type        NotificationType   `json:"type" gorm:"type:varchar(32);not null"`
	Message     string             `json:"message" gorm:"type:text"`
	Status      NotificationStatus `json:"status" gorm:"type:varchar(16);not null;default:unread;index:idx_notif_recipient_status"`
	CreatedAt   time.Time          `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (Notification) TableName() string { return "notifications" }
