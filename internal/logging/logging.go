package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

// New creates a logrus.Logger writing to stdout with the provided level and format (text|json).
func New(level, format string) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with a custom destination.
func NewWithWriter(out io.Writer, level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(levelFromString(level))
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// GormLevel 将应用日志级别映射到 gorm 的日志级别
func GormLevel(level string) logger.LogLevel {
	switch levelFromString(level) {
	case logrus.DebugLevel, logrus.TraceLevel:
		return logger.Info
	case logrus.InfoLevel, logrus.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}

func levelFromString(value string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error", "fatal", "panic":
		return logrus.ErrorLevel
	default:
		// 未知取值按 info 处理
		return logrus.InfoLevel
	}
}
