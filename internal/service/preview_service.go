package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// ErrAIAPIKeyMissing 表示未配置 AI 平台 API Key。
var ErrAIAPIKeyMissing = errors.New("api key is required")

// PreviewInput 描述生成文章导语所需的上下文。
type PreviewInput struct {
	Title   string
	Content string
	// MaxTokens 控制模型输出上限，0 表示使用默认值。
	MaxTokens int
}

// PreviewResult 返回生成的导语及少量元数据。
type PreviewResult struct {
	PreviewText      string `json:"preview_text"`
	Source           string `json:"source"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

const (
	PreviewSourceAI      = "ai"
	PreviewSourceExcerpt = "excerpt"
)

// PreviewGenerator 定义导语生成能力，便于在业务层注入不同实现。
type PreviewGenerator interface {
	GeneratePreview(ctx context.Context, input PreviewInput) (PreviewResult, error)
}

const (
	defaultPreviewModel        = "gpt-4o-mini"
	defaultPreviewMaxTokens    = 160
	defaultPreviewTemperature  = 0.2
	maxPreviewContentRuneCount = 4000
	defaultPreviewSystemPrompt = "You write short, friendly preview texts for yoga studio articles. " +
		"Reply with one or two plain sentences, no markdown, no quotes."
)

// AIPreviewConfig 配置 OpenAI 兼容接口
type AIPreviewConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AIPreviewService 基于 OpenAI 兼容的 Chat Completions 接口生成文章导语。
type AIPreviewService struct {
	client *openai.Client
	model  string
	logger logrus.FieldLogger
}

var _ PreviewGenerator = (*AIPreviewService)(nil)

// NewAIPreviewService 构造 AIPreviewService；APIKey 为空时 GeneratePreview 返回 ErrAIAPIKeyMissing。
func NewAIPreviewService(cfg AIPreviewConfig, logger logrus.FieldLogger) *AIPreviewService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultPreviewModel
	}

	svc := &AIPreviewService{model: model, logger: logger}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return svc
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	svc.client = openai.NewClientWithConfig(clientCfg)
	return svc
}

// GeneratePreview 调用模型生成导语。
func (s *AIPreviewService) GeneratePreview(ctx context.Context, input PreviewInput) (PreviewResult, error) {
	if s.client == nil {
		return PreviewResult{}, ErrAIAPIKeyMissing
	}

	maxTokens := input.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultPreviewMaxTokens
	}

	userPrompt := buildPreviewPrompt(input.Title, truncateRunes(input.Content, maxPreviewContentRuneCount))
	logAIExchange(s.logger, "PREVIEW", "prompt", userPrompt)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: defaultPreviewSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: defaultPreviewTemperature,
	})
	if err != nil {
		return PreviewResult{}, fmt.Errorf("generate preview: %w", err)
	}
	if len(resp.Choices) == 0 {
		return PreviewResult{}, errors.New("generate preview: empty response")
	}

	preview := strings.TrimSpace(resp.Choices[0].Message.Content)
	logAIExchange(s.logger, "PREVIEW", "response", preview)
	if preview == "" {
		return PreviewResult{}, errors.New("generate preview: empty content")
	}

	return PreviewResult{
		PreviewText:      preview,
		Source:           PreviewSourceAI,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func buildPreviewPrompt(title, content string) string {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	var builder strings.Builder
	if title != "" {
		builder.WriteString("Title: ")
		builder.WriteString(title)
		builder.WriteString("\n")
	}
	if content != "" {
		builder.WriteString("Article:\n")
		builder.WriteString(content)
	}
	return builder.String()
}
