package db

import "time"

// ArticleStatus 描述文章生命周期状态
type ArticleStatus string

const (
	StatusDraft         ArticleStatus = "draft"
	StatusPendingReview ArticleStatus = "pending_review"
	StatusPublished     ArticleStatus = "published"
	// StatusRejected 保留在枚举中以兼容旧数据，驳回后文章实际回到 draft。
	StatusRejected ArticleStatus = "rejected"
)

// Valid 判断状态是否为已知取值
func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusPublished, StatusRejected:
		return true
	}
	return false
}

// ModerationStatus 记录最近一次审核结论
type ModerationStatus string

const (
	ModerationNone     ModerationStatus = "none"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Article 定义了文章模型
type Article struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	AuthorID         uint             `gorm:"index;not null" json:"author_id"`
	Author           User             `gorm:"foreignKey:AuthorID" json:"author"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Content          string           `gorm:"type:text" json:"content"`
	PreviewText      string           `gorm:"type:text" json:"preview_text"`
	Category         string           `gorm:"size:80;index" json:"category"`
	Status           ArticleStatus    `gorm:"size:32;index;not null;default:draft" json:"status"`
	ModerationStatus ModerationStatus `gorm:"size:32;not null;default:none" json:"moderation_status"`
	ModeratedAt      *time.Time       `json:"moderated_at"`
	ModeratedBy      *uint            `json:"moderated_by"`
	PublishedAt      *time.Time       `gorm:"index" json:"published_at"`
	ViewCount        uint64           `gorm:"default:0" json:"view_count"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsOwnedBy 判断文章是否属于指定作者
func (a *Article) IsOwnedBy(userID uint) bool {
	return a != nil && userID != 0 && a.AuthorID == userID
}
