package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
	"github.com/sirupsen/logrus"
)

// DecisionEvent 在审核事务提交之后发出
type DecisionEvent struct {
	ArticleID    uint
	ArticleTitle string
	AuthorID     uint
	ModeratorID  uint
	Action       db.ModerationAction
	Comment      string
	DecidedAt    time.Time
	LogID        uint
}

// DecisionListener 接收审核结果。没有返回值：监听者的任何失败都不能影响已提交的迁移。
type DecisionListener interface {
	OnDecision(ctx context.Context, event DecisionEvent)
}

// DecisionListenerFunc 适配普通函数
type DecisionListenerFunc func(ctx context.Context, event DecisionEvent)

// OnDecision implements DecisionListener.
func (f DecisionListenerFunc) OnDecision(ctx context.Context, event DecisionEvent) {
	f(ctx, event)
}

// ModerationService 是文章状态迁移的唯一入口：
//
//	draft          --submit(author)-->    pending_review
//	pending_review --approve(moderator)--> published
//	pending_review --reject(moderator)-->  draft (moderation_status=rejected)
type ModerationService struct {
	articles  repository.ArticleRepository
	authz     Authorizer
	listeners []DecisionListener
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewModerationService wires the state machine with its collaborators.
func NewModerationService(articles repository.ArticleRepository, authz Authorizer, logger logrus.FieldLogger, listeners ...DecisionListener) *ModerationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ModerationService{
		articles:  articles,
		authz:     authz,
		listeners: listeners,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock 覆盖时间来源，主要用于测试。
func (s *ModerationService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// AddListener 注册提交后回调
func (s *ModerationService) AddListener(listener DecisionListener) {
	if listener == nil {
		return
	}
	s.listeners = append(s.listeners, listener)
}

// Submit 作者提交草稿进入待审核队列。
func (s *ModerationService) Submit(ctx context.Context, articleID, actorID uint) (*db.Article, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translateStoreError("submit", articleID, err)
	}
	allowed, err := s.authz.Can(ctx, actorID, ActionSubmit, article)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	if article.Status != db.StatusDraft {
		return nil, &InvalidStateError{ArticleID: articleID, Operation: "submit", Status: string(article.Status)}
	}

	now := s.now().UTC()
	if err := s.articles.Transition(ctx, articleID, repository.Transition{
		From:      db.StatusDraft,
		To:        db.StatusPendingReview,
		UpdatedAt: now,
	}); err != nil {
		return nil, translateStoreError("submit", articleID, err)
	}

	article.Status = db.StatusPendingReview
	article.UpdatedAt = now

	s.logger.WithFields(logrus.Fields{
		"article_id": articleID,
		"actor_id":   actorID,
	}).Info("article submitted for review")
	return article, nil
}

// Approve 审核通过并发布文章。
func (s *ModerationService) Approve(ctx context.Context, articleID, moderatorID uint) (*db.Article, error) {
	return s.ApproveWithComment(ctx, articleID, moderatorID, "")
}

// ApproveWithComment 与 Approve 相同，附带可选的审核备注。
func (s *ModerationService) ApproveWithComment(ctx context.Context, articleID, moderatorID uint, comment string) (*db.Article, error) {
	return s.decide(ctx, "approve", articleID, moderatorID, db.ActionApproved, strings.TrimSpace(comment))
}

// Reject 驳回文章，文章回到草稿并记录原因，comment 不能为空。
func (s *ModerationService) Reject(ctx context.Context, articleID, moderatorID uint, comment string) (*db.Article, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, newValidationError("comment", "rejection comment is required")
	}
	return s.decide(ctx, "reject", articleID, moderatorID, db.ActionRejected, comment)
}

func (s *ModerationService) decide(ctx context.Context, op string, articleID, moderatorID uint, action db.ModerationAction, comment string) (*db.Article, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return nil, translateStoreError(op, articleID, err)
	}

	allowed, err := s.authz.Can(ctx, moderatorID, ActionModerate, article)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	if article.Status != db.StatusPendingReview {
		return nil, &InvalidStateError{ArticleID: articleID, Operation: op, Status: string(article.Status)}
	}

	now := s.now().UTC()
	moderator := moderatorID
	transition := repository.Transition{
		From:        db.StatusPendingReview,
		ModeratedBy: &moderator,
		ModeratedAt: &now,
		UpdatedAt:   now,
	}
	switch action {
	case db.ActionApproved:
		transition.To = db.StatusPublished
		transition.ModerationStatus = db.ModerationApproved
		transition.PublishedAt = &now
	case db.ActionRejected:
		transition.To = db.StatusDraft
		transition.ModerationStatus = db.ModerationRejected
	default:
		return nil, fmt.Errorf("unsupported moderation action %q", action)
	}

	entry := &db.ModerationLog{
		Action:      action,
		ModeratedBy: moderatorID,
		ModeratedAt: now,
		Comment:     comment,
	}
	if err := s.articles.ApplyDecision(ctx, articleID, transition, entry); err != nil {
		return nil, translateStoreError(op, articleID, err)
	}

	article.Status = transition.To
	article.ModerationStatus = transition.ModerationStatus
	article.ModeratedBy = &moderator
	article.ModeratedAt = &now
	article.UpdatedAt = now
	if transition.PublishedAt != nil {
		article.PublishedAt = transition.PublishedAt
	}

	s.logger.WithFields(logrus.Fields{
		"article_id":   articleID,
		"moderator_id": moderatorID,
		"action":       action,
	}).Info("moderation decision applied")

	s.emit(ctx, DecisionEvent{
		ArticleID:    article.ID,
		ArticleTitle: article.Title,
		AuthorID:     article.AuthorID,
		ModeratorID:  moderatorID,
		Action:       action,
		Comment:      comment,
		DecidedAt:    now,
		LogID:        entry.ID,
	})

	return article, nil
}

func (s *ModerationService) emit(ctx context.Context, event DecisionEvent) {
	detached := context.WithoutCancel(ctx)
	for _, listener := range s.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.WithFields(logrus.Fields{
						"article_id": event.ArticleID,
						"panic":      r,
					}).Error("decision listener panicked")
				}
			}()
			listener.OnDecision(detached, event)
		}()
	}
}
