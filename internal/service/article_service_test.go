package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Can(ctx context.Context, actorID uint, action Action, article *db.Article) (bool, error) {
	args := m.Called(ctx, actorID, action, article)
	return args.Bool(0), args.Error(1)
}

type mockPreviewGenerator struct {
	mock.Mock
}

func (m *mockPreviewGenerator) GeneratePreview(ctx context.Context, input PreviewInput) (PreviewResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(PreviewResult), args.Error(1)
}

func TestArticleService_CreateValidatesInput(t *testing.T) {
	gdb := setupServiceTestDB(t)
	author := createTestUser(t, gdb, "writer", db.RoleAuthor)
	svc := NewArticleService(repository.NewArticleRepository(gdb), NewRoleAuthorizer(gdb), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, author.ID, ArticleInput{Title: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, author.ID, ArticleInput{Title: strings.Repeat("冥", maxTitleRunes+1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, 0, ArticleInput{Title: "Orphan"})
	assert.ErrorIs(t, err, ErrValidation)

	article, err := svc.Create(ctx, author.ID, ArticleInput{
		Title:    "  Breath Work  ",
		Content:  "# Breath Work\n\nInhale for four counts, exhale for six.",
		Category: " practice ",
	})
	require.NoError(t, err)
	assert.NotZero(t, article.ID)
	assert.Equal(t, "Breath Work", article.Title)
	assert.Equal(t, "practice", article.Category)
	assert.Equal(t, db.StatusDraft, article.Status)
	assert.Equal(t, db.ModerationNone, article.ModerationStatus)
	assert.Equal(t, "Inhale for four counts, exhale for six.", article.PreviewText)
}

func TestArticleService_UpdateOnlyOwnDrafts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	author := createTestUser(t, gdb, "writer", db.RoleAuthor)
	other := createTestUser(t, gdb, "stranger", db.RoleAuthor)
	moderator := createTestUser(t, gdb, "mod", db.RoleModerator)
	articles := repository.NewArticleRepository(gdb)
	authz := NewRoleAuthorizer(gdb)
	svc := NewArticleService(articles, authz, nil, nil)
	moderation := NewModerationService(articles, authz, nil)
	ctx := context.Background()

	article, err := svc.Create(ctx, author.ID, ArticleInput{Title: "Draft", Content: "first"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, article.ID, other.ID, ArticleInput{Title: "Hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, article.ID, author.ID, ArticleInput{Title: "Draft v2", Content: "second", PreviewText: "custom lead"})
	require.NoError(t, err)
	assert.Equal(t, "Draft v2", updated.Title)
	assert.Equal(t, "custom lead", updated.PreviewText)

	_, err = moderation.Submit(ctx, article.ID, author.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, article.ID, author.ID, ArticleInput{Title: "Too late"})
	assert.ErrorIs(t, err, ErrInvalidState)

	// 审核员也不能直接修改作者的稿件
	_, err = svc.Update(ctx, article.ID, moderator.ID, ArticleInput{Title: "Edited by mod"})
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := svc.Get(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft v2", stored.Title)

	_, err = svc.Update(ctx, 999, author.ID, ArticleInput{Title: "Ghost"})
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestArticleService_RecordViewOnlyForPublished(t *testing.T) {
	f := newModerationFixture(t)
	ctx := context.Background()
	draft := f.draft(t, "Unlisted")

	_, err := f.drafts.RecordView(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrArticleNotFound)

	live := f.pending(t, "Live")
	_, err = f.moderation.Approve(ctx, live.ID, f.moderator.ID)
	require.NoError(t, err)

	viewed, err := f.drafts.RecordView(ctx, live.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, viewed.ViewCount)

	viewed, err = f.drafts.RecordView(ctx, live.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, viewed.ViewCount)

	_, err = f.drafts.RecordView(ctx, 31337)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestArticleService_GeneratePreviewFallsBackToExcerpt(t *testing.T) {
	gdb := setupServiceTestDB(t)
	author := createTestUser(t, gdb, "writer", db.RoleAuthor)
	articles := repository.NewArticleRepository(gdb)
	ctx := context.Background()

	seed := NewArticleService(articles, NewRoleAuthorizer(gdb), nil, nil)
	article, err := seed.Create(ctx, author.ID, ArticleInput{Title: "Mudras", Content: "Hands tell the story of the practice."})
	require.NoError(t, err)

	authz := new(mockAuthorizer)
	authz.On("Can", mock.Anything, author.ID, ActionEdit, mock.AnythingOfType("*db.Article")).Return(true, nil)

	previews := new(mockPreviewGenerator)
	previews.On("GeneratePreview", mock.Anything, PreviewInput{Title: "Mudras", Content: "Hands tell the story of the practice."}).
		Return(PreviewResult{}, errors.New("upstream 502")).Once()

	log, hook := test.NewNullLogger()
	svc := NewArticleService(articles, authz, previews, log)

	result, err := svc.GeneratePreview(ctx, article.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, PreviewSourceExcerpt, result.Source)
	assert.Equal(t, "Hands tell the story of the practice.", result.PreviewText)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "ai preview failed, falling back to excerpt", hook.LastEntry().Message)

	previews.On("GeneratePreview", mock.Anything, mock.Anything).
		Return(PreviewResult{PreviewText: "A gentle guide to mudras.", Source: PreviewSourceAI}, nil).Once()

	result, err = svc.GeneratePreview(ctx, article.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, PreviewSourceAI, result.Source)
	assert.Equal(t, "A gentle guide to mudras.", result.PreviewText)

	previews.AssertExpectations(t)
	authz.AssertExpectations(t)
}

func TestArticleService_GeneratePreviewForbidden(t *testing.T) {
	gdb := setupServiceTestDB(t)
	author := createTestUser(t, gdb, "writer", db.RoleAuthor)
	articles := repository.NewArticleRepository(gdb)
	ctx := context.Background()

	seed := NewArticleService(articles, NewRoleAuthorizer(gdb), nil, nil)
	article, err := seed.Create(ctx, author.ID, ArticleInput{Title: "Private", Content: "notes"})
	require.NoError(t, err)

	authz := new(mockAuthorizer)
	authz.On("Can", mock.Anything, uint(77), ActionEdit, mock.Anything).Return(false, nil)
	previews := new(mockPreviewGenerator)

	svc := NewArticleService(articles, authz, previews, nil)
	_, err = svc.GeneratePreview(ctx, article.ID, 77)
	assert.ErrorIs(t, err, ErrForbidden)
	previews.AssertNotCalled(t, "GeneratePreview", mock.Anything, mock.Anything)
}
