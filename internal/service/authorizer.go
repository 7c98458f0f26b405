package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/articleflow/internal/db"
	"gorm.io/gorm"
)

// Action 需要授权的操作
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionEdit     Action = "edit"
	ActionModerate Action = "moderate"
	ActionView     Action = "view"

	// ActionViewHistory 审核日志只对作者与审核员可见，与文章是否发布无关
	ActionViewHistory Action = "view_history"
)

// Authorizer 统一回答“某个用户能否对某篇文章执行某操作”。
type Authorizer interface {
	Can(ctx context.Context, actorID uint, action Action, article *db.Article) (bool, error)
}

// RoleAuthorizer 基于 users.roles 做能力判断
type RoleAuthorizer struct {
	db *gorm.DB
}

var _ Authorizer = (*RoleAuthorizer)(nil)

// NewRoleAuthorizer creates a RoleAuthorizer.
func NewRoleAuthorizer(gdb *gorm.DB) *RoleAuthorizer {
	return &RoleAuthorizer{db: gdb}
}

// Can implements Authorizer.
func (a *RoleAuthorizer) Can(ctx context.Context, actorID uint, action Action, article *db.Article) (bool, error) {
	switch action {
	case ActionSubmit, ActionEdit:
		return article.IsOwnedBy(actorID), nil
	case ActionView:
		if article != nil && article.Status == db.StatusPublished {
			return true, nil
		}
		if article.IsOwnedBy(actorID) {
			return true, nil
		}
		return a.isModerator(ctx, actorID)
	case ActionViewHistory:
		if article.IsOwnedBy(actorID) {
			return true, nil
		}
		return a.isModerator(ctx, actorID)
	case ActionModerate:
		return a.isModerator(ctx, actorID)
	default:
		return false, nil
	}
}

// IsModerator 判断用户是否具备审核能力
func (a *RoleAuthorizer) IsModerator(ctx context.Context, actorID uint) (bool, error) {
	return a.isModerator(ctx, actorID)
}

func (a *RoleAuthorizer) isModerator(ctx context.Context, actorID uint) (bool, error) {
	if actorID == 0 {
		return false, nil
	}
	var user db.User
	if err := a.db.WithContext(ctx).Select("id", "roles").First(&user, actorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: load roles for user %d: %v", ErrStoreUnavailable, actorID, err)
	}
	return user.HasRole(db.RoleModerator) || user.HasRole(db.RoleAdmin), nil
}
