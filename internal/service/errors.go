package service

import (
	stderrors "errors"

	"github.com/d60-Lab/followgraph/pkg/errcode"
)

var (
	ErrMissingAccount   = errcode.InvalidArg("account id is required")
	ErrFollowSelf       = errcode.InvalidArg("cannot follow self")
	ErrAccountNotFound  = errcode.NotFound("account not found")
	ErrAlreadyRequested = errcode.Conflict("follow already requested")
	ErrAlreadyFollowing = errcode.Conflict("already following")
	ErrEdgeNotFound     = errcode.NotFound("follow request not found")
	ErrNotReceiver      = errcode.Forbidden("only the receiver can decide on a follow request")
	// ErrEdgeResolved 请求已被接受或拒绝（先到者生效）
	ErrEdgeResolved = errcode.Conflict("follow request already resolved")
	ErrNotFollowing = errcode.NotFound("not following")

	ErrNotificationNotFound = errcode.NotFound("notification not found")
	ErrNotOwner             = errcode.Forbidden("notification belongs to another account")
	ErrInvalidStatusFilter  = errcode.InvalidArg("status must be one of unread, read, all")
	ErrInvalidNotification  = errcode.InvalidArg("invalid notification type")
)

// fail 保留业务错误，其余视为存储故障（可重试）
func fail(op string, err error) error {
	var appErr *errcode.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errcode.Storage(op, err)
}
