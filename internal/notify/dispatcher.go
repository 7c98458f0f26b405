package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message 已渲染、待投递的通知
type Message struct {
	ID        string                 `json:"id"`
	UserID    uint                   `json:"user_id"`
	Kind      db.NotificationKind    `json:"kind"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// Sender 负责实际投递
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config 控制队列容量与并发
type Config struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

type request struct {
	userID  uint
	kind    db.NotificationKind
	payload map[string]interface{}
}

// Dispatcher 以“发出即忘”的方式投递通知：Notify 从不阻塞调用方，
// 投递失败只记录日志，不重试。
type Dispatcher struct {
	sender    Sender
	templates *Templates
	logger    logrus.FieldLogger
	timeout   time.Duration
	workers   int

	mu      sync.RWMutex
	queue   chan request
	closed  bool
	started bool
	wg      sync.WaitGroup
}

var _ service.DecisionListener = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher. Start must be called before messages are delivered.
func NewDispatcher(sender Sender, templates *Templates, cfg Config, logger logrus.FieldLogger) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		sender:    sender,
		templates: templates,
		logger:    logger,
		timeout:   cfg.SendTimeout,
		workers:   cfg.Workers,
		queue:     make(chan request, cfg.QueueSize),
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for req := range d.queue {
				d.deliver(ctx, req)
			}
		}()
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Notify 入队一条通知并立即返回；队列已满或已关闭时丢弃并返回 false。
func (d *Dispatcher) Notify(userID uint, kind db.NotificationKind, payload map[string]interface{}) bool {
	fields := logrus.Fields{"user_id": userID, "kind": kind}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.WithFields(fields).Warn("notification dropped: dispatcher closed")
		return false
	}

	select {
	case d.queue <- request{userID: userID, kind: kind, payload: payload}:
		return true
	default:
		d.logger.WithFields(fields).Error("notification dropped: queue full")
		return false
	}
}

// OnDecision 将审核结果转换为给作者的通知。
func (d *Dispatcher) OnDecision(_ context.Context, event service.DecisionEvent) {
	kind := db.NotificationArticleApproved
	if event.Action == db.ActionRejected {
		kind = db.NotificationArticleRejected
	}
	d.Notify(event.AuthorID, kind, map[string]interface{}{
		"article_id":    event.ArticleID,
		"article_title": event.ArticleTitle,
		"action":        string(event.Action),
		"comment":       event.Comment,
		"moderator_id":  event.ModeratorID,
		"decided_at":    event.DecidedAt.Format(time.RFC3339),
		"log_id":        event.LogID,
	})
}

func (d *Dispatcher) deliver(ctx context.Context, req request) {
	entry := d.logger.WithFields(logrus.Fields{"user_id": req.userID, "kind": req.kind})

	title, body, err := d.templates.Render(req.kind, req.payload)
	if err != nil {
		entry.WithError(err).Error("notification render failed")
		return
	}

	msg := Message{
		ID:        uuid.NewString(),
		UserID:    req.userID,
		Kind:      req.kind,
		Title:     title,
		Body:      body,
		Payload:   req.payload,
		CreatedAt: time.Now().UTC(),
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg); err != nil {
		if errors.Is(err, context.Canceled) {
			entry.WithError(err).Warn("notification delivery cancelled")
			return
		}
		entry.WithError(err).WithField("notification_id", msg.ID).Error("notification delivery failed")
		return
	}
	entry.WithField("notification_id", msg.ID).Debug("notification delivered")
}
