package db

import "time"

// ModerationAction 审核动作
type ModerationAction string

const (
	ActionApproved ModerationAction = "approved"
	ActionRejected ModerationAction = "rejected"
)

// ModerationLog 记录一次审核决定，只追加不修改。
type ModerationLog struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ArticleID   uint             `gorm:"index:idx_moderation_logs_article_time;not null" json:"article_id"`
	Article     Article          `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Action      ModerationAction `gorm:"size:32;not null" json:"action"`
	ModeratedBy uint             `gorm:"not null" json:"moderated_by"`
	Moderator   User             `gorm:"foreignKey:ModeratedBy" json:"moderator"`
	ModeratedAt time.Time        `gorm:"index:idx_moderation_logs_article_time;not null" json:"moderated_at"`
	Comment     string           `gorm:"type:text" json:"comment"`
}

// TableName 指定自定义表名。
func (ModerationLog) TableName() string {
	return "moderation_logs"
}
