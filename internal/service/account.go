package service

import (
	"context"

	"github.com/d60-Lab/followgraph/internal/model"
)

// AccountDirectory 账户系统的窄接口：校验接收者是否存在、投影公开资料
type AccountDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
	PublicProfile(ctx context.Context, id string) (model.PublicProfile, error)
	PublicProfiles(ctx context.Context, ids []string) (map[string]model.PublicProfile, error)
}
