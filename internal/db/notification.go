package db

import "time"

// NotificationKind 通知模板类型
type NotificationKind string

const (
	NotificationArticleApproved NotificationKind = "article_approved"
	NotificationArticleRejected NotificationKind = "article_rejected"
)

// Notification 站内通知，作者可在收件箱查看审核结果
type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint             `gorm:"index;not null" json:"user_id"`
	Kind      NotificationKind `gorm:"size:50;not null" json:"kind"`
	Title     string           `gorm:"size:255" json:"title"`
	Body      string           `gorm:"type:text" json:"body"`
	Payload   string           `gorm:"type:text" json:"payload"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

// TableName 指定自定义表名。
func (Notification) TableName() string {
	return "notifications"
}
