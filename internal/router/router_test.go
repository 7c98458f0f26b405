package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/handler"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log, _ := test.NewNullLogger()
	return SetupRouter(handler.NewAPI(gdb, nil, log), "test-secret", log)
}

func TestSetupRouterPing(t *testing.T) {
	r := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
	if got := rr.Header().Get("X-Request-ID"); got != "req-42" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}

func TestSetupRouterProtectsMemberRoutes(t *testing.T) {
	r := setupTestRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodPost, path: "/api/articles"},
		{method: http.MethodGet, path: "/api/articles/mine"},
		{method: http.MethodPost, path: "/api/articles/1/submit"},
		{method: http.MethodGet, path: "/api/moderation/queue"},
		{method: http.MethodPost, path: "/api/moderation/articles/1/approve"},
		{method: http.MethodGet, path: "/api/notifications"},
		{method: http.MethodGet, path: "/api/auth/me"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Fatalf("expected generated request id")
			}
		})
	}
}

func TestSetupRouterPublicRoutesAreOpen(t *testing.T) {
	r := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/public/articles", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/public/articles/77", nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
