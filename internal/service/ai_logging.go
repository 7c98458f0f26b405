package service

import (
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const maxAILogSnippetRunes = 1024

// logAIExchange 用于输出 AI 请求与响应的关键信息，方便排查模型行为。
func logAIExchange(logger logrus.FieldLogger, kind, phase, content string) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{"ai": kind, "phase": phase})

	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		entry.Debug("<empty>")
		return
	}

	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxAILogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxAILogSnippetRunes]) + "…(truncated)"
	}
	entry.WithField("runes", runeCount).Debug(snippet)
}
