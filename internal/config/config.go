package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	LogLevel      string
	LogFormat     string

	AdminUserName     string
	AdminPassword     string
	ModeratorUserName string
	ModeratorPassword string

	NotifyWebhookURL     string
	NotifyWebhookTimeout time.Duration
	NotifyQueueSize      int
	NotifyWorkers        int

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
}

var defaults = map[string]interface{}{
	"port":                   "8080",
	"database_path":          "articleflow.db",
	"session_secret":         "articleflow-dev-secret",
	"gin_mode":               "release",
	"log_level":              "info",
	"log_format":             "text",
	"notify_webhook_timeout": "5s",
	"notify_queue_size":      256,
	"notify_workers":         2,
	"ai_model":               "gpt-4o-mini",
}

var keys = []string{
	"listen_addr",
	"port",
	"database_path",
	"session_secret",
	"gin_mode",
	"log_level",
	"log_format",
	"admin_user_name",
	"admin_password",
	"moderator_user_name",
	"moderator_password",
	"notify_webhook_url",
	"notify_webhook_timeout",
	"notify_queue_size",
	"notify_workers",
	"ai_api_key",
	"ai_base_url",
	"ai_model",
}

// Load 读取 config.yaml（当前目录或 ./config，CONFIG_FILE 可指定路径），
// 环境变量优先（ARTICLEFLOW_DATABASE_PATH 或同名大写 DATABASE_PATH），并为缺失项提供安全的默认值。
func Load() AppConfig {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("ARTICLEFLOW")
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
	_ = v.BindEnv("config_file", "CONFIG_FILE")

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logrus.WithError(err).Warn("config: cannot read config file, falling back to env and defaults")
		}
	}

	port := strings.TrimSpace(v.GetString("port"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(v.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	timeout := v.GetDuration("notify_webhook_timeout")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return AppConfig{
		ListenAddr:           listenAddr,
		Port:                 port,
		DatabasePath:         stringOr(v, "database_path", "articleflow.db"),
		SessionSecret:        stringOr(v, "session_secret", "articleflow-dev-secret"),
		GinMode:              stringOr(v, "gin_mode", "release"),
		LogLevel:             stringOr(v, "log_level", "info"),
		LogFormat:            stringOr(v, "log_format", "text"),
		AdminUserName:        strings.TrimSpace(v.GetString("admin_user_name")),
		AdminPassword:        strings.TrimSpace(v.GetString("admin_password")),
		ModeratorUserName:    strings.TrimSpace(v.GetString("moderator_user_name")),
		ModeratorPassword:    strings.TrimSpace(v.GetString("moderator_password")),
		NotifyWebhookURL:     strings.TrimSpace(v.GetString("notify_webhook_url")),
		NotifyWebhookTimeout: timeout,
		NotifyQueueSize:      positiveOr(v.GetInt("notify_queue_size"), 256),
		NotifyWorkers:        positiveOr(v.GetInt("notify_workers"), 2),
		AIAPIKey:             strings.TrimSpace(v.GetString("ai_api_key")),
		AIBaseURL:            strings.TrimSpace(v.GetString("ai_base_url")),
		AIModel:              stringOr(v, "ai_model", "gpt-4o-mini"),
	}
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	return fallback
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
