// Package errcode 服务层与 HTTP 层共用的错误分类。
// 服务只返回 *AppError，由 API 层统一映射为状态码。
package errcode

import (
	"context"
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInvalidArgument  Code = "INVALID_ARGUMENT"
	CodeNotFound         Code = "NOT_FOUND"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeConflict         Code = "CONFLICT"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeDeadlineExceeded Code = "DEADLINE_EXCEEDED"
	CodeInternal         Code = "INTERNAL"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is 按 Code 与 Message 匹配，被包装的哨兵错误仍能命中
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) *AppError { return New(CodeInvalidArgument, msg) }

func NotFound(msg string) *AppError { return New(CodeNotFound, msg) }

func Forbidden(msg string) *AppError { return New(CodePermissionDenied, msg) }

func Conflict(msg string) *AppError { return New(CodeConflict, msg) }

func Unauthorized(msg string) *AppError { return New(CodeUnauthenticated, msg) }

// Storage 存储失败转为可重试错误；超时单独使用 DEADLINE_EXCEEDED
func Storage(op string, cause error) *AppError {
	if errors.Is(cause, context.DeadlineExceeded) {
		return Wrap(CodeDeadlineExceeded, op+": deadline exceeded", cause)
	}
	return Wrap(CodeUnavailable, op+": storage unavailable", cause)
}

// CodeOf 取错误码：非 AppError 为 INTERNAL，nil 为 UNKNOWN
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Retryable 是否可原样重试
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeDeadlineExceeded:
		return true
	}
	return false
}
