package service

import (
	"errors"
	"fmt"

	"github.com/articleflow/internal/repository"
)

var (
	// ErrArticleNotFound 引用的文章不存在
	ErrArticleNotFound = errors.New("article not found")
	// ErrForbidden 操作者缺少所有权或审核权限
	ErrForbidden = errors.New("actor is not allowed to perform this action")
	// ErrInvalidState 文章当前状态不允许该迁移，包括并发审核中失败的一方
	ErrInvalidState = errors.New("article status does not permit this transition")
	// ErrValidation 调用方输入未通过前置校验
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable 存储不可用或事务未能提交，可整体重试
	ErrStoreUnavailable = errors.New("article store unavailable")
)

// ValidationError 携带具体字段的校验失败信息，errors.Is(err, ErrValidation) 为 true。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is 让 ValidationError 与 ErrValidation 匹配
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidStateError 描述被拒绝的迁移
type InvalidStateError struct {
	ArticleID uint
	Operation string
	Status    string
}

func (e *InvalidStateError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("cannot %s article %d: status changed concurrently", e.Operation, e.ArticleID)
	}
	return fmt.Sprintf("cannot %s article %d in status %q", e.Operation, e.ArticleID, e.Status)
}

// Is 让 InvalidStateError 与 ErrInvalidState 匹配
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// translateStoreError 将存储层错误映射到服务层错误分类
func translateStoreError(op string, articleID uint, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrArticleNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return &InvalidStateError{ArticleID: articleID, Operation: op}
	default:
		return fmt.Errorf("%w: %s article %d: %v", ErrStoreUnavailable, op, articleID, err)
	}
}
