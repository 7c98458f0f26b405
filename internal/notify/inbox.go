package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/articleflow/internal/db"
	"gorm.io/gorm"
)

// ErrNotificationNotFound 通知不存在或不属于当前用户
var ErrNotificationNotFound = errors.New("notification not found")

const defaultInboxLimit = 50

// InboxService 站内通知读取
type InboxService struct {
	db *gorm.DB
}

// NewInboxService creates an InboxService.
func NewInboxService(gdb *gorm.DB) *InboxService {
	return &InboxService{db: gdb}
}

// List 返回用户最近的通知，最新在前
func (s *InboxService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]db.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultInboxLimit
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []db.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount 统计未读数量
func (s *InboxService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead 标记为已读，重复标记保持首次时间
func (s *InboxService) MarkRead(ctx context.Context, userID uint, id string) error {
	var notification db.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("load notification: %w", err)
	}
	if notification.ReadAt != nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ?", id).
		Update("read_at", time.Now().UTC()).Error
}
