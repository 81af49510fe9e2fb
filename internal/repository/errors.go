package repository

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = stderrors.New("record not found")
	ErrDuplicate = stderrors.New("duplicate record")
	// ErrStale 条件更新没有命中：行已不在期望状态（或已被删除）
	ErrStale = stderrors.New("record changed concurrently")
)

// isDuplicate 识别唯一约束冲突。TranslateError 打开时 gorm 会给出
// ErrDuplicatedKey，字符串匹配兜底未开启翻译的连接。
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
