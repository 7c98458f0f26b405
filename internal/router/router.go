package router

import (
	"net/http"

	"github.com/articleflow/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const sessionName = "articleflow_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, logger logrus.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestID(), handler.AccessLog(logger))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode, MaxAge: 7 * 24 * 3600})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		auth := apiGroup.Group("/auth")
		{
			auth.POST("/login", api.Login)
			auth.POST("/logout", api.Logout)
			auth.GET("/me", handler.AuthRequired(), api.Me)
		}

		public := apiGroup.Group("/public")
		public.Use(handler.OptionalUser())
		{
			public.GET("/articles", api.PublicArticles)
			public.GET("/articles/:id", api.PublicArticle)
		}

		// 需要登录的接口
		member := apiGroup.Group("")
		member.Use(handler.AuthRequired())
		{
			member.POST("/articles", api.CreateArticle)
			member.GET("/articles/mine", api.MyArticles)
			member.GET("/articles/:id", api.GetArticle)
			member.PUT("/articles/:id", api.UpdateArticle)
			member.GET("/articles/:id/logs", api.ArticleLogs)
			member.POST("/articles/:id/submit", api.SubmitArticle)
			member.POST("/articles/:id/preview", api.GenerateArticlePreview)

			member.GET("/notifications", api.ListNotifications)
			member.POST("/notifications/:id/read", api.MarkNotificationRead)

			moderation := member.Group("/moderation")
			moderation.Use(api.ModeratorRequired())
			{
				moderation.GET("/queue", api.ModerationQueue)
				moderation.GET("/stats", api.ModerationStats)
				moderation.POST("/articles/:id/approve", api.ApproveArticle)
				moderation.POST("/articles/:id/reject", api.RejectArticle)
			}
		}
	}

	return r
}
