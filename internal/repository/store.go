package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/d60-Lab/followgraph/internal/model"
)

// Store 关系边与通知流水共用的事务边界
type Store interface {
	Follows() FollowRepository
	Notifications() NotificationRepository
	// Transaction 在单个数据库事务内执行 fn；fn 返回错误则回滚
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore 基于 gorm 的 Store，进程启动时打开，关闭时 Close
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Follows() FollowRepository { return NewFollowRepository(s.db) }

func (s *GormStore) Notifications() NotificationRepository { return NewNotificationRepository(s.db) }

func (s *GormStore) Users() UserRepository { return NewUserRepository(s.db) }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// DB 暴露底层连接（健康检查用）
func (s *GormStore) DB() *gorm.DB { return s.db }

// InitSchema 初始化表结构
func (s *GormStore) InitSchema() error {
	if err := s.db.AutoMigrate(&model.User{}, &model.Follow{}, &model.Notification{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close 关闭数据库连接
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
