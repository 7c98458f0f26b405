package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/articleflow/internal/config"
	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/handler"
	"github.com/articleflow/internal/logging"
	"github.com/articleflow/internal/notify"
	"github.com/articleflow/internal/router"
	"github.com/articleflow/internal/service"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath, logging.GormLevel(cfg.LogLevel)); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	seeds := []struct {
		username, password string
		roles              []string
	}{
		{cfg.AdminUserName, cfg.AdminPassword, []string{db.RoleAdmin, db.RoleModerator}},
		{cfg.ModeratorUserName, cfg.ModeratorPassword, []string{db.RoleModerator}},
	}
	for _, seed := range seeds {
		if seed.username == "" || seed.password == "" {
			continue
		}
		if err := db.EnsureUser(db.DB, seed.username, seed.password, seed.roles...); err != nil {
			log.WithError(err).WithField("username", seed.username).Fatal("failed to seed user")
		}
	}

	templates, err := notify.DefaultTemplates()
	if err != nil {
		log.WithError(err).Fatal("failed to load notification templates")
	}
	senders := notify.MultiSender{notify.NewInboxSender(db.DB)}
	if cfg.NotifyWebhookURL != "" {
		senders = append(senders, notify.NewWebhookSender(cfg.NotifyWebhookURL, cfg.NotifyWebhookTimeout))
	}
	dispatcher := notify.NewDispatcher(senders, templates, notify.Config{
		QueueSize:   cfg.NotifyQueueSize,
		Workers:     cfg.NotifyWorkers,
		SendTimeout: cfg.NotifyWebhookTimeout,
	}, log)
	dispatcher.Start(context.Background())

	previews := service.NewAIPreviewService(service.AIPreviewConfig{
		APIKey:  cfg.AIAPIKey,
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
	}, log)

	api := handler.NewAPI(db.DB, previews, log, dispatcher)
	r := router.SetupRouter(api, cfg.SessionSecret, log)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("articleflow listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to run server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	// 请求处理结束后再关闭通知队列，已入队的通知会被投递完
	dispatcher.Close()
}
