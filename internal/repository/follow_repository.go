package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/d60-Lab/followgraph/internal/model"
)

// FollowRepository 关注边存储。唯一性依赖表上的 ux_follow_pair，而不是应用层锁。
type FollowRepository interface {
	// Create 新建 pending 边；有序对已存在时返回 ErrDuplicate
	Create(ctx context.Context, senderID, receiverID string) (*model.Follow, error)
	GetByID(ctx context.Context, id string) (*model.Follow, error)
	GetByPair(ctx context.Context, senderID, receiverID string) (*model.Follow, error)
	// Transition 仅当当前状态为 from 时改为 to，否则返回 ErrStale
	Transition(ctx context.Context, id string, from, to model.FollowStatus) (*model.Follow, error)
	// DeleteAccepted 删除 accepted 边，返回是否删除了行
	DeleteAccepted(ctx context.Context, senderID, receiverID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, int64, error)
	ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, int64, error)
	ListIncomingPending(ctx context.Context, receiverID string, offset, limit int) ([]*model.Follow, int64, error)
	ListOutgoingPending(ctx context.Context, senderID string, offset, limit int) ([]*model.Follow, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, senderID, receiverID string) (*model.Follow, error) {
	f := &model.Follow{ID: uuid.New().String(), SenderID: senderID, ReceiverID: receiverID, Status: model.FollowStatusPending}
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "followRepo.Create")
	}
	return f, nil
}

func (r *followRepository) GetByID(ctx context.Context, id string) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "followRepo.GetByID")
	}
	return &f, nil
}

func (r *followRepository) GetByPair(ctx context.Context, senderID, receiverID string) (*model.Follow, error) {
	var f model.Follow
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		First(&f).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "followRepo.GetByPair")
	}
	return &f, nil
}

func (r *followRepository) Transition(ctx context.Context, id string, from, to model.FollowStatus) (*model.Follow, error) {
	now := time.Now()
	updates := map[string]any{"status": to, "updated_at": now}
	if to == model.FollowStatusAccepted {
		updates["accepted_at"] = now
	} else {
		updates["accepted_at"] = nil
	}

	// 条件更新：先到者生效，后到者命中 0 行
	res := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "followRepo.Transition")
	}
	if res.RowsAffected == 0 {
		return nil, ErrStale
	}
	return r.GetByID(ctx, id)
}

func (r *followRepository) DeleteAccepted(ctx context.Context, senderID, receiverID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, model.FollowStatusAccepted).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "followRepo.DeleteAccepted")
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, "receiver_id = ? AND status = ?", userID, model.FollowStatusAccepted)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, "sender_id = ? AND status = ?", userID, model.FollowStatusAccepted)
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.page(ctx, "accepted_at DESC, id DESC", offset, limit, "receiver_id = ? AND status = ?", userID, model.FollowStatusAccepted)
}

func (r *followRepository) ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.page(ctx, "accepted_at DESC, id DESC", offset, limit, "sender_id = ? AND status = ?", userID, model.FollowStatusAccepted)
}

func (r *followRepository) ListIncomingPending(ctx context.Context, receiverID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.page(ctx, "updated_at DESC, id DESC", offset, limit, "receiver_id = ? AND status = ?", receiverID, model.FollowStatusPending)
}

func (r *followRepository) ListOutgoingPending(ctx context.Context, senderID string, offset, limit int) ([]*model.Follow, int64, error) {
	return r.page(ctx, "updated_at DESC, id DESC", offset, limit, "sender_id = ? AND status = ?", senderID, model.FollowStatusPending)
}

func (r *followRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).Where(query, args...).Count(&cnt).Error; err != nil {
		return 0, errors.Wrap(err, "followRepo.count")
	}
	return cnt, nil
}

func (r *followRepository) page(ctx context.Context, order string, offset, limit int, query string, args ...any) ([]*model.Follow, int64, error) {
	total, err := r.count(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var res []*model.Follow
	err = r.db.WithContext(ctx).
		Where(query, args...).
		Order(order).
		Offset(offset).Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "followRepo.page")
	}
	return res, total, nil
}
