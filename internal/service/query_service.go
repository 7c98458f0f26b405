package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
)

// ListFilter describes filters accepted by the read-side projections.
type ListFilter struct {
	Status    db.ArticleStatus
	Category  string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PerPage   int
}

// ArticleDetail 文章详情及其审核历史
type ArticleDetail struct {
	Article     *db.Article        `json:"article"`
	ContentHTML string             `json:"content_html"`
	Logs        []db.ModerationLog `json:"logs"`
}

// QueryService 只读投影：待审核队列、我的文章、详情与统计。
type QueryService struct {
	articles repository.ArticleRepository
	logs     repository.ModerationLogRepository
	authz    Authorizer
}

// NewQueryService creates a QueryService instance.
func NewQueryService(articles repository.ArticleRepository, logs repository.ModerationLogRepository, authz Authorizer) *QueryService {
	return &QueryService{articles: articles, logs: logs, authz: authz}
}

// PendingQueue 返回待审核文章，按创建时间倒序
func (s *QueryService) PendingQueue(ctx context.Context, filter ListFilter) (*repository.ArticlePage, error) {
	query := filter.toQuery()
	query.Statuses = []db.ArticleStatus{db.StatusPendingReview}
	query.OrderBy = repository.OrderCreatedDesc
	return s.list(ctx, query)
}

// AuthorArticles 返回某位作者的文章，可按状态过滤
func (s *QueryService) AuthorArticles(ctx context.Context, authorID uint, filter ListFilter) (*repository.ArticlePage, error) {
	if authorID == 0 {
		return nil, newValidationError("author_id", "author is required")
	}
	query := filter.toQuery()
	query.AuthorID = authorID
	query.OrderBy = repository.OrderUpdatedDesc
	return s.list(ctx, query)
}

// Published 前台文章列表，按发布时间倒序
func (s *QueryService) Published(ctx context.Context, filter ListFilter) (*repository.ArticlePage, error) {
	query := filter.toQuery()
	query.Statuses = []db.ArticleStatus{db.StatusPublished}
	query.OrderBy = repository.OrderPublishedDesc
	return s.list(ctx, query)
}

// StatusCounts 在相同筛选条件下统计各状态文章数量
func (s *QueryService) StatusCounts(ctx context.Context, filter ListFilter) (map[db.ArticleStatus]int64, error) {
	counts, err := s.articles.CountByStatus(ctx, filter.toQuery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return counts, nil
}

// Detail 返回文章与审核历史（最新在前），仅作者与审核员可见未发布文章；
// 其他读者看到的已发布文章不带审核历史。
func (s *QueryService) Detail(ctx context.Context, articleID, viewerID uint) (*ArticleDetail, error) {
	article, err := s.viewable(ctx, articleID, viewerID)
	if err != nil {
		return nil, err
	}

	logs := []db.ModerationLog{}
	canSeeHistory, err := s.authz.Can(ctx, viewerID, ActionViewHistory, article)
	if err != nil {
		return nil, err
	}
	if canSeeHistory {
		logs, err = repository.CollectLogs(s.logs.ListByArticle(ctx, articleID, repository.SortNewestFirst))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	html, err := RenderMarkdown(article.Content)
	if err != nil {
		return nil, fmt.Errorf("render article %d: %w", articleID, err)
	}

	return &ArticleDetail{Article: article, ContentHTML: html, Logs: logs}, nil
}

// ModerationHistory 返回审核历史的惰性序列，仅作者与审核员可读，调用前完成校验。
func (s *QueryService) ModerationHistory(ctx context.Context, articleID, viewerID uint, order repository.SortOrder) (iter.Seq2[db.ModerationLog, error], error) {
	if _, err := s.authorized(ctx, articleID, viewerID, ActionViewHistory); err != nil {
		return nil, err
	}
	return s.logs.ListByArticle(ctx, articleID, order), nil
}

func (s *QueryService) viewable(ctx context.Context, articleID, viewerID uint) (*db.Article, error) {
	return s.authorized(ctx, articleID, viewerID, ActionView)
}

func (s *QueryService) authorized(ctx context.Context, articleID, viewerID uint, action Action) (*db.Article, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translateStoreError("view", articleID, err)
	}
	allowed, err := s.authz.Can(ctx, viewerID, action, article)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return article, nil
}

func (s *QueryService) list(ctx context.Context, query repository.ArticleQuery) (*repository.ArticlePage, error) {
	page, err := s.articles.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return page, nil
}

func (f ListFilter) toQuery() repository.ArticleQuery {
	query := repository.ArticleQuery{
		Category:  strings.TrimSpace(f.Category),
		Search:    strings.TrimSpace(f.Search),
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Page:      f.Page,
		PerPage:   f.PerPage,
	}
	if f.Status != "" {
		query.Statuses = []db.ArticleStatus{f.Status}
	}
	return query
}
