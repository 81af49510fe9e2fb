package repository

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/followgraph/internal/model"
)

// UserRepository 本地账户资料表，实现 service.AccountDirectory
type UserRepository interface {
	Upsert(ctx context.Context, users ...*model.User) error
	Exists(ctx context.Context, id string) (bool, error)
	PublicProfile(ctx context.Context, id string) (model.PublicProfile, error)
	PublicProfiles(ctx context.Context, ids []string) (map[string]model.PublicProfile, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Upsert(ctx context.Context, users ...*model.User) error {
	if len(users) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"handle", "display_name", "avatar_url", "updated_at"}),
		}).
		CreateInBatches(users, 500).Error
	return errors.Wrap(err, "userRepo.Upsert")
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, errors.Wrap(err, "userRepo.Exists")
	}
	return cnt > 0, nil
}

func (r *userRepository) PublicProfile(ctx context.Context, id string) (model.PublicProfile, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return model.PublicProfile{}, ErrNotFound
		}
		return model.PublicProfile{}, errors.Wrap(err, "userRepo.PublicProfile")
	}
	return u.Profile(), nil
}

func (r *userRepository) PublicProfiles(ctx context.Context, ids []string) (map[string]model.PublicProfile, error) {
	out := make(map[string]model.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "userRepo.PublicProfiles")
	}
	for i := range users {
		out[users[i].ID] = users[i].Profile()
	}
	return out, nil
}
