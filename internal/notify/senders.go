package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/articleflow/internal/db"
	"gorm.io/gorm"
)

// InboxSender 将通知写入站内收件箱
type InboxSender struct {
	db *gorm.DB
}

var _ Sender = (*InboxSender)(nil)

// NewInboxSender creates an InboxSender.
func NewInboxSender(gdb *gorm.DB) *InboxSender {
	return &InboxSender{db: gdb}
}

// Send implements Sender.
func (s *InboxSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}
	row := db.Notification{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Kind:      msg.Kind,
		Title:     msg.Title,
		Body:      msg.Body,
		Payload:   string(payload),
		CreatedAt: msg.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookSender 以 JSON POST 的方式把通知转发给外部通知服务
type WebhookSender struct {
	url    string
	client httpDoer
}

var _ Sender = (*WebhookSender)(nil)

// NewWebhookSender registers the endpoint; timeout applies per request.
func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *WebhookSender) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	s.client = client
}

// Send implements Sender.
func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	if s.url == "" || s.client == nil {
		return errors.New("webhook sender misconfigured")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", msg.ID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}

// MultiSender 依次投递给所有 Sender，汇总错误
type MultiSender []Sender

var _ Sender = MultiSender(nil)

// Send implements Sender.
func (m MultiSender) Send(ctx context.Context, msg Message) error {
	var errs []error
	for _, sender := range m {
		if sender == nil {
			continue
		}
		if err := sender.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
