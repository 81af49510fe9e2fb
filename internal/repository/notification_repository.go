package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/d60-Lab/followgraph/internal/model"
)

// NotificationRepository 通知流水存储。只追加，变更仅限已读/未读与删除。
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uint) (*model.Notification, error)
	// List 按创建时间倒序；status 为空表示全部
	List(ctx context.Context, recipientID string, status model.NotificationStatus, offset, limit int) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id uint) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.Status == "" {
		n.Status = model.NotificationUnread
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return errors.Wrap(err, "notificationRepo.Create")
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "notificationRepo.GetByID")
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID string, status model.NotificationStatus, offset, limit int) ([]*model.Notification, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("recipient_id = ?", recipientID)
		if status != "" {
			db = db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "notificationRepo.List.Count")
	}

	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "notificationRepo.List.Find")
	}
	return res, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND status = ?", id, model.NotificationUnread).
		Updates(map[string]any{"status": model.NotificationRead, "updated_at": time.Now()}).Error
	return errors.Wrap(err, "notificationRepo.MarkRead")
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND status = ?", recipientID, model.NotificationUnread).
		Updates(map[string]any{"status": model.NotificationRead, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "notificationRepo.MarkAllRead")
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Notification{}).Error
	return errors.Wrap(err, "notificationRepo.Delete")
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND status = ?", recipientID, model.NotificationUnread).
		Count(&cnt).Error
	if err != nil {
		return 0, errors.Wrap(err, "notificationRepo.UnreadCount")
	}
	return cnt, nil
}
