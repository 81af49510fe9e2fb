package service

import (
	"context"
	stderrors "errors"

	"github.com/d60-Lab/followgraph/internal/model"
	"github.com/d60-Lab/followgraph/internal/repository"
)

// NotificationPage 通知分页，附带实时未读数（用于角标）
type NotificationPage struct {
	Page[*model.Notification]
	UnreadCount int64 `json:"unreadCount"`
}

// NotificationService 通知流水：只有接收者本人可以读、改、删自己的通知
type NotificationService interface {
	Create(ctx context.Context, recipientID, actorID string, typ model.NotificationType, message string) (*model.Notification, error)
	List(ctx context.Context, recipientID, status string, page, pageSize int) (*NotificationPage, error)
	MarkRead(ctx context.Context, id uint, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id uint, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type notificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) NotificationService {
	return &notificationService{store: store}
}

func (s *notificationService) Create(ctx context.Context, recipientID, actorID string, typ model.NotificationType, message string) (*model.Notification, error) {
	if recipientID == "" || actorID == "" {
		return nil, ErrMissingAccount
	}
	switch typ {
	case model.NotificationFollowRequest, model.NotificationFollowAccepted, model.NotificationFollowRejected,
		model.NotificationLike, model.NotificationComment, model.NotificationMention:
	default:
		return nil, ErrInvalidNotification
	}
	n := &model.Notification{RecipientID: recipientID, ActorID: actorID, Type: typ, Message: message, Status: model.NotificationUnread}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return nil, fail("Notifications.Create", err)
	}
	return n, nil
}

// ParseStatusFilter 将查询参数转为状态过滤；空串与 all 表示不过滤
func ParseStatusFilter(status string) (model.NotificationStatus, error) {
	switch status {
	case "", "all":
		return "", nil
	case string(model.NotificationUnread):
		return model.NotificationUnread, nil
	case string(model.NotificationRead):
		return model.NotificationRead, nil
	}
	return "", ErrInvalidStatusFilter
}

func (s *notificationService) List(ctx context.Context, recipientID, status string, page, pageSize int) (*NotificationPage, error) {
	if recipientID == "" {
		return nil, ErrMissingAccount
	}
	filter, err := ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	page, pageSize, offset := normalizePage(page, pageSize)

	items, total, err := s.store.Notifications().List(ctx, recipientID, filter, offset, pageSize)
	if err != nil {
		return nil, fail("Notifications.List", err)
	}
	unread, err := s.store.Notifications().UnreadCount(ctx, recipientID)
	if err != nil {
		return nil, fail("Notifications.List.unread", err)
	}
	if items == nil {
		items = []*model.Notification{}
	}
	return &NotificationPage{
		Page:        Page[*model.Notification]{Items: items, Page: page, PageSize: pageSize, Total: total},
		UnreadCount: unread,
	}, nil
}

// owned 取通知并校验归属
func (s *notificationService) owned(ctx context.Context, id uint, recipientID string) (*model.Notification, error) {
	if recipientID == "" {
		return nil, ErrMissingAccount
	}
	n, err := s.store.Notifications().GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fail("Notifications.Get", err)
	}
	if n.RecipientID != recipientID {
		return nil, ErrNotOwner
	}
	return n, nil
}

// MarkRead 幂等：已读的通知再次标记直接成功
func (s *notificationService) MarkRead(ctx context.Context, id uint, recipientID string) error {
	n, err := s.owned(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if n.Status == model.NotificationRead {
		return nil
	}
	if err := s.store.Notifications().MarkRead(ctx, id); err != nil {
		return fail("Notifications.MarkRead", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	if recipientID == "" {
		return 0, ErrMissingAccount
	}
	n, err := s.store.Notifications().MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, fail("Notifications.MarkAllRead", err)
	}
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, id uint, recipientID string) error {
	if _, err := s.owned(ctx, id, recipientID); err != nil {
		return err
	}
	if err := s.store.Notifications().Delete(ctx, id); err != nil {
		return fail("Notifications.Delete", err)
	}
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	if recipientID == "" {
		return 0, ErrMissingAccount
	}
	n, err := s.store.Notifications().UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, fail("Notifications.UnreadCount", err)
	}
	return n, nil
}
