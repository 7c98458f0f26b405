package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListNotifications 当前用户的站内通知，unread=1 只返回未读
func (a *API) ListNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	unreadOnly := c.Query("unread") == "1" || strings.EqualFold(c.Query("unread"), "true")

	notifications, err := a.inbox.List(ctx, userID, unreadOnly, queryInt(c, "limit"))
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	unread, err := a.inbox.UnreadCount(ctx, userID)
	if err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread": unread})
}

// MarkNotificationRead 标记已读
func (a *API) MarkNotificationRead(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.inbox.MarkRead(c.Request.Context(), currentUserID(c), id); err != nil {
		a.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
