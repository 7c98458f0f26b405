package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/notify"
	"github.com/articleflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// respondServiceError 将服务层错误映射为 HTTP 状态码
func (a *API) respondServiceError(c *gin.Context, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
	case errors.Is(err, service.ErrValidation):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrArticleNotFound), errors.Is(err, notify.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		a.logRequestError(c, err)
		respondError(c, http.StatusServiceUnavailable, "store unavailable, please retry")
	default:
		a.logRequestError(c, err)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) logRequestError(c *gin.Context, err error) {
	_ = c.Error(err)
	a.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.FullPath(),
	}).WithError(err).Error("request failed")
}

// parseListFilter 解析列表查询参数：status, category, q, start_date, end_date, page, per_page
func parseListFilter(c *gin.Context) (service.ListFilter, error) {
	filter := service.ListFilter{
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("q")),
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := db.ArticleStatus(raw)
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status %q", raw)
		}
		filter.Status = status
	}

	if raw := strings.TrimSpace(c.Query("start_date")); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date")
		}
		filter.StartDate = &start
	}
	if raw := strings.TrimSpace(c.Query("end_date")); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date")
		}
		// 包含结束日期当天
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	filter.Page = queryInt(c, "page")
	filter.PerPage = queryInt(c, "per_page")
	return filter, nil
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
