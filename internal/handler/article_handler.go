package handler

import (
	"net/http"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
	"github.com/articleflow/internal/service"
	"github.com/gin-gonic/gin"
)

type articlePayload struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PreviewText string `json:"preview_text"`
	Category    string `json:"category"`
}

func (p articlePayload) input() service.ArticleInput {
	return service.ArticleInput{
		Title:       p.Title,
		Content:     p.Content,
		PreviewText: p.PreviewText,
		Category:    p.Category,
	}
}

// CreateArticle 创建草稿
func (a *API) CreateArticle(c *gin.Context) {
	var payload articlePayload
	if !bindJSON(c, &payload, "invalid article payload") {
		return
	}

	article, err := a.articles.Create(c.Request.Context(), currentUserID(c), payload.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": article})
}

// UpdateArticle 修改草稿
func (a *API) UpdateArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload articlePayload
	if !bindJSON(c, &payload, "invalid article payload") {
		return
	}

	article, err := a.articles.Update(c.Request.Context(), id, currentUserID(c), payload.input())
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// MyArticles 当前作者的文章列表，支持按状态筛选
func (a *API) MyArticles(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.queries.AuthorArticles(c.Request.Context(), currentUserID(c), filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetArticle 文章详情与审核历史
func (a *API) GetArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := a.queries.Detail(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ArticleLogs 审核日志，order=asc|desc（默认最新在前）
func (a *API) ArticleLogs(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	order := repository.ParseSortOrder(c.Query("order"))
	seq, err := a.queries.ModerationHistory(c.Request.Context(), id, currentUserID(c), order)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	logs := make([]db.ModerationLog, 0)
	for entry, err := range seq {
		if err != nil {
			a.respondServiceError(c, err)
			return
		}
		logs = append(logs, entry)
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "order": order})
}

// SubmitArticle 提交审核
func (a *API) SubmitArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	article, err := a.moderation.Submit(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// GenerateArticlePreview 生成导语建议，不保存
func (a *API) GenerateArticlePreview(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.articles.GeneratePreview(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
