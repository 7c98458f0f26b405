package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
	"github.com/sirupsen/logrus"
)

const maxTitleRunes = 255

// ArticleInput represents fields accepted when creating or updating an article.
type ArticleInput struct {
	Title       string
	Content     string
	PreviewText string
	Category    string
}

// ArticleService 负责作者侧的草稿维护，状态迁移交给 ModerationService。
type ArticleService struct {
	articles repository.ArticleRepository
	authz    Authorizer
	previews PreviewGenerator
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewArticleService creates an ArticleService instance. previews 可以为 nil，此时只使用正文摘录。
func NewArticleService(articles repository.ArticleRepository, authz Authorizer, previews PreviewGenerator, logger logrus.FieldLogger) *ArticleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ArticleService{
		articles: articles,
		authz:    authz,
		previews: previews,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock 覆盖时间来源，主要用于测试。
func (s *ArticleService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Create 以草稿状态创建文章
func (s *ArticleService) Create(ctx context.Context, authorID uint, input ArticleInput) (*db.Article, error) {
	if authorID == 0 {
		return nil, newValidationError("author_id", "author is required")
	}
	if err := validateArticleInput(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	article := &db.Article{
		AuthorID:         authorID,
		Title:            strings.TrimSpace(input.Title),
		Content:          input.Content,
		PreviewText:      previewOrExcerpt(input),
		Category:         strings.TrimSpace(input.Category),
		Status:           db.StatusDraft,
		ModerationStatus: db.ModerationNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.WithFields(logrus.Fields{
		"article_id": article.ID,
		"author_id":  authorID,
	}).Info("draft created")
	return article, nil
}

// Update 作者修改自己的草稿；待审核或已发布的文章不可编辑。
func (s *ArticleService) Update(ctx context.Context, articleID, actorID uint, input ArticleInput) (*db.Article, error) {
	if err := validateArticleInput(input); err != nil {
		return nil, err
	}

	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translateStoreError("edit", articleID, err)
	}

	allowed, err := s.authz.Can(ctx, actorID, ActionEdit, article)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	if article.Status != db.StatusDraft {
		return nil, &InvalidStateError{ArticleID: articleID, Operation: "edit", Status: string(article.Status)}
	}

	article.Title = strings.TrimSpace(input.Title)
	article.Content = input.Content
	article.PreviewText = previewOrExcerpt(input)
	article.Category = strings.TrimSpace(input.Category)
	article.UpdatedAt = s.now().UTC()

	if err := s.articles.UpdateDraft(ctx, article); err != nil {
		return nil, translateStoreError("edit", articleID, err)
	}
	return article, nil
}

// Get fetches an article by id.
func (s *ArticleService) Get(ctx context.Context, articleID uint) (*db.Article, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translateStoreError("get", articleID, err)
	}
	return article, nil
}

// RecordView 前台阅读计数，只对已发布文章生效；未发布文章对读者表现为不存在。
func (s *ArticleService) RecordView(ctx context.Context, articleID uint) (*db.Article, error) {
	if err := s.articles.IncrementViews(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, ErrArticleNotFound
		}
		return nil, translateStoreError("view", articleID, err)
	}
	return s.Get(ctx, articleID)
}

// GeneratePreview 为草稿生成导语建议，不写库。AI 不可用时回退为正文摘录。
func (s *ArticleService) GeneratePreview(ctx context.Context, articleID, actorID uint) (PreviewResult, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return PreviewResult{}, translateStoreError("preview", articleID, err)
	}

	allowed, err := s.authz.Can(ctx, actorID, ActionEdit, article)
	if err != nil {
		return PreviewResult{}, err
	}
	if !allowed {
		return PreviewResult{}, ErrForbidden
	}

	if s.previews != nil {
		result, err := s.previews.GeneratePreview(ctx, PreviewInput{Title: article.Title, Content: article.Content})
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrAIAPIKeyMissing) {
			s.logger.WithFields(logrus.Fields{
				"article_id": articleID,
				"error":      err,
			}).Warn("ai preview failed, falling back to excerpt")
		}
	}

	return PreviewResult{
		PreviewText: ExtractPreview(article.Content, defaultPreviewRunes),
		Source:      PreviewSourceExcerpt,
	}, nil
}

func validateArticleInput(input ArticleInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return newValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return newValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleRunes))
	}
	return nil
}

func previewOrExcerpt(input ArticleInput) string {
	if preview := strings.TrimSpace(input.PreviewText); preview != "" {
		return preview
	}
	if strings.TrimSpace(input.Content) == "" {
		return ""
	}
	return ExtractPreview(input.Content, defaultPreviewRunes)
}
