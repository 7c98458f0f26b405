package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/articleflow/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict 比较并交换失败：文章状态已不是期望值
	ErrStatusConflict = errors.New("article status does not match expected value")
)

// Ordering 列表排序方式
type Ordering string

const (
	OrderCreatedDesc   Ordering = "created_desc"
	OrderUpdatedDesc   Ordering = "updated_desc"
	OrderPublishedDesc Ordering = "published_desc"
)

func (o Ordering) clause() string {
	switch o {
	case OrderUpdatedDesc:
		return "articles.updated_at desc, articles.id desc"
	case OrderPublishedDesc:
		return "articles.published_at desc, articles.id desc"
	default:
		return "articles.created_at desc, articles.id desc"
	}
}

// ArticleQuery describes filters for listing articles.
type ArticleQuery struct {
	AuthorID  uint
	Statuses  []db.ArticleStatus
	Category  string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	OrderBy   Ordering
	Page      int
	PerPage   int
}

// ArticlePage aggregates paginated list data.
type ArticlePage struct {
	Articles   []db.Article `json:"articles"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"total_pages"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
}

// Transition 描述一次状态迁移需要写入的列。
// ModerationStatus 为空表示不修改审核结论。
type Transition struct {
	From             db.ArticleStatus
	To               db.ArticleStatus
	ModerationStatus db.ModerationStatus
	ModeratedBy      *uint
	ModeratedAt      *time.Time
	PublishedAt      *time.Time
	UpdatedAt        time.Time
}

func (t Transition) columns() map[string]interface{} {
	updates := map[string]interface{}{
		"status":     t.To,
		"updated_at": t.UpdatedAt,
	}
	if t.ModerationStatus != "" {
		updates["moderation_status"] = t.ModerationStatus
	}
	if t.ModeratedBy != nil {
		updates["moderated_by"] = *t.ModeratedBy
	}
	if t.ModeratedAt != nil {
		updates["moderated_at"] = *t.ModeratedAt
	}
	if t.PublishedAt != nil {
		updates["published_at"] = *t.PublishedAt
	}
	return updates
}

// ArticleRepository 是文章存储的持久化接口
type ArticleRepository interface {
	Create(ctx context.Context, article *db.Article) error
	Get(ctx context.Context, id uint) (*db.Article, error)
	UpdateDraft(ctx context.Context, article *db.Article) error
	Transition(ctx context.Context, id uint, t Transition) error
	ApplyDecision(ctx context.Context, id uint, t Transition, entry *db.ModerationLog) error
	IncrementViews(ctx context.Context, id uint) error
	List(ctx context.Context, query ArticleQuery) (*ArticlePage, error)
	CountByStatus(ctx context.Context, query ArticleQuery) (map[db.ArticleStatus]int64, error)
}

type articleRepository struct {
	db *gorm.DB
}

var _ ArticleRepository = (*articleRepository)(nil)

// NewArticleRepository creates a gorm backed ArticleRepository.
func NewArticleRepository(gdb *gorm.DB) ArticleRepository {
	return &articleRepository{db: gdb}
}

func (r *articleRepository) Create(ctx context.Context, article *db.Article) error {
	if article == nil {
		return errors.New("article cannot be nil")
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(article).Error; err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (r *articleRepository) Get(ctx context.Context, id uint) (*db.Article, error) {
	var article db.Article
	if err := r.db.WithContext(ctx).Preload("Author").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}
	return &article, nil
}

// UpdateDraft 仅在文章仍为草稿时写入内容字段
func (r *articleRepository) UpdateDraft(ctx context.Context, article *db.Article) error {
	if article == nil {
		return errors.New("article cannot be nil")
	}
	updates := map[string]interface{}{
		"title":        article.Title,
		"content":      article.Content,
		"preview_text": article.PreviewText,
		"category":     article.Category,
		"updated_at":   article.UpdatedAt,
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return compareAndSwap(tx, article.ID, db.StatusDraft, updates)
	})
}

func (r *articleRepository) Transition(ctx context.Context, id uint, t Transition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return compareAndSwap(tx, id, t.From, t.columns())
	})
}

// ApplyDecision 在同一事务中完成状态 CAS 与审核日志写入，任一失败整体回滚。
func (r *articleRepository) ApplyDecision(ctx context.Context, id uint, t Transition, entry *db.ModerationLog) error {
	if entry == nil {
		return errors.New("moderation log entry cannot be nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := compareAndSwap(tx, id, t.From, t.columns()); err != nil {
			return err
		}
		entry.ArticleID = id
		return appendLog(tx, entry)
	})
}

func (r *articleRepository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&db.Article{}).
		Where("id = ? AND status = ?", id, db.StatusPublished).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("increment views %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return missOrConflict(r.db.WithContext(ctx), id)
	}
	return nil
}

func (r *articleRepository) List(ctx context.Context, query ArticleQuery) (*ArticlePage, error) {
	result := &ArticlePage{Page: query.Page, PerPage: query.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	countQuery, err := applyPredicate(r.db.WithContext(ctx).Model(&db.Article{}), query.predicate(true))
	if err != nil {
		return nil, err
	}
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	dataQuery, err := applyPredicate(r.db.WithContext(ctx).Model(&db.Article{}).Preload("Author"), query.predicate(true))
	if err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage
	var articles []db.Article
	if err := dataQuery.Order(query.OrderBy.clause()).Limit(result.PerPage).Offset(offset).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}
	result.Articles = articles
	return result, nil
}

// CountByStatus 在相同筛选条件下按状态分组计数，忽略 query.Statuses。
func (r *articleRepository) CountByStatus(ctx context.Context, query ArticleQuery) (map[db.ArticleStatus]int64, error) {
	var rows []struct {
		Status db.ArticleStatus
		Total  int64
	}
	base, err := applyPredicate(r.db.WithContext(ctx).Model(&db.Article{}), query.predicate(false))
	if err != nil {
		return nil, err
	}
	if err := base.Select("articles.status AS status, COUNT(*) AS total").
		Group("articles.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count articles by status: %w", err)
	}

	counts := map[db.ArticleStatus]int64{
		db.StatusDraft:         0,
		db.StatusPendingReview: 0,
		db.StatusPublished:     0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (q ArticleQuery) predicate(includeStatus bool) sq.Sqlizer {
	conds := sq.And{}

	if q.AuthorID != 0 {
		conds = append(conds, sq.Eq{"articles.author_id": q.AuthorID})
	}

	if includeStatus && len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, status := range q.Statuses {
			statuses = append(statuses, string(status))
		}
		conds = append(conds, sq.Eq{"articles.status": statuses})
	}

	if category := strings.TrimSpace(q.Category); category != "" {
		conds = append(conds, sq.Eq{"articles.category": category})
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		conds = append(conds, sq.Or{
			sq.Like{"articles.title": like},
			sq.Like{"articles.content": like},
			sq.Like{"articles.preview_text": like},
		})
	}

	if q.StartDate != nil {
		conds = append(conds, sq.GtOrEq{"articles.created_at": q.StartDate.UTC()})
	}
	if q.EndDate != nil {
		conds = append(conds, sq.LtOrEq{"articles.created_at": q.EndDate.UTC()})
	}

	return conds
}

func applyPredicate(query *gorm.DB, pred sq.Sqlizer) (*gorm.DB, error) {
	sql, args, err := pred.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article filter: %w", err)
	}
	if strings.TrimSpace(sql) == "" {
		return query, nil
	}
	return query.Where(sql, args...), nil
}

func compareAndSwap(tx *gorm.DB, id uint, expected db.ArticleStatus, updates map[string]interface{}) error {
	result := tx.Model(&db.Article{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update article %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return missOrConflict(tx, id)
	}
	return nil
}

func missOrConflict(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&db.Article{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check article %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}
