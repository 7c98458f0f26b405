package handler

import (
	"net/http"

	"github.com/articleflow/internal/service"
	"github.com/gin-gonic/gin"
)

// PublicArticles 前台已发布文章列表
func (a *API) PublicArticles(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	// 前台只看已发布，忽略 status 参数
	filter.Status = ""

	page, err := a.queries.Published(c.Request.Context(), filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// PublicArticle 前台阅读，累加阅读数；未发布文章返回 404
func (a *API) PublicArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	article, err := a.articles.RecordView(c.Request.Context(), id)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}

	html, err := service.RenderMarkdown(article.Content)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article, "content_html": html})
}
