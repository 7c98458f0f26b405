package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type decisionPayload struct {
	Comment string `json:"comment"`
}

// ModerationQueue 待审核队列
func (a *API) ModerationQueue(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.queries.PendingQueue(c.Request.Context(), filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ModerationStats 各状态文章数量
func (a *API) ModerationStats(c *gin.Context) {
	filter, err := parseListFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	counts, err := a.queries.StatusCounts(c.Request.Context(), filter)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// ApproveArticle 审核通过，comment 可选
func (a *API) ApproveArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 空请求体视为没有备注；分块传输的请求 ContentLength 为 -1，不能据此判断
	var payload decisionPayload
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, "invalid decision payload")
			return
		}
	}

	article, err := a.moderation.ApproveWithComment(c.Request.Context(), id, currentUserID(c), payload.Comment)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// RejectArticle 驳回，comment 必填
func (a *API) RejectArticle(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload decisionPayload
	if !bindJSON(c, &payload, "invalid decision payload") {
		return
	}

	article, err := a.moderation.Reject(c.Request.Context(), id, currentUserID(c), payload.Comment)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}
