package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/repository"
	"github.com/articleflow/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNotifyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notify-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

type recordingSender struct {
	mu       sync.Mutex
	messages []Message
	err      error
	calls    int
	block    chan struct{}
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) snapshot() ([]Message, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...), s.calls
}

func newTestDispatcher(t *testing.T, sender Sender, cfg Config) (*Dispatcher, *test.Hook) {
	t.Helper()
	templates, err := DefaultTemplates()
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	return NewDispatcher(sender, templates, cfg, log), hook
}

func TestDispatcher_DeliversRenderedMessage(t *testing.T) {
	sender := &recordingSender{}
	d, _ := newTestDispatcher(t, sender, Config{})
	d.Start(context.Background())

	ok := d.Notify(7, db.NotificationArticleRejected, map[string]interface{}{
		"article_title": "Sun Salutation",
		"comment":       "needs citations",
	})
	require.True(t, ok)
	d.Close()

	messages, calls := sender.snapshot()
	require.Equal(t, 1, calls)
	require.Len(t, messages, 1)
	msg := messages[0]
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, uint(7), msg.UserID)
	assert.Equal(t, db.NotificationArticleRejected, msg.Kind)
	assert.Equal(t, `Your article "Sun Salutation" needs changes`, msg.Title)
	assert.Contains(t, msg.Body, "Reason: needs citations")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{}
	d, hook := newTestDispatcher(t, sender, Config{QueueSize: 1, Workers: 1})

	// 未启动的 dispatcher 不消费队列，第二条必然溢出
	assert.True(t, d.Notify(1, db.NotificationArticleApproved, map[string]interface{}{"article_title": "a"}))
	assert.False(t, d.Notify(1, db.NotificationArticleApproved, map[string]interface{}{"article_title": "b"}))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "notification dropped: queue full", hook.LastEntry().Message)

	d.Start(context.Background())
	d.Close()
	_, calls := sender.snapshot()
	assert.Equal(t, 1, calls)
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d, _ := newTestDispatcher(t, sender, Config{QueueSize: 2, Workers: 1})
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Notify(uint(i+1), db.NotificationArticleApproved, map[string]interface{}{"article_title": "slow"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow sender")
	}
	close(sender.block)
	d.Close()
}

func TestDispatcher_FailuresAreNotRetried(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d, hook := newTestDispatcher(t, sender, Config{Workers: 1})
	d.Start(context.Background())

	require.True(t, d.Notify(3, db.NotificationArticleApproved, map[string]interface{}{"article_title": "x"}))
	d.Close()

	_, calls := sender.snapshot()
	assert.Equal(t, 1, calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "notification delivery failed", hook.LastEntry().Message)
}

func TestDispatcher_ClosedDropsAndCloseIsIdempotent(t *testing.T) {
	sender := &recordingSender{}
	d, hook := newTestDispatcher(t, sender, Config{})
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.False(t, d.Notify(1, db.NotificationArticleApproved, nil))
	assert.Equal(t, "notification dropped: dispatcher closed", hook.LastEntry().Message)
}

func TestDispatcher_UnknownKindIsLogged(t *testing.T) {
	sender := &recordingSender{}
	d, hook := newTestDispatcher(t, sender, Config{})
	d.Start(context.Background())
	d.Notify(1, db.NotificationKind("article_archived"), nil)
	d.Close()

	_, calls := sender.snapshot()
	assert.Zero(t, calls)
	assert.Equal(t, "notification render failed", hook.LastEntry().Message)
}

func TestDispatcher_RejectionReachesAuthorInbox(t *testing.T) {
	gdb := setupNotifyTestDB(t)
	ctx := context.Background()

	author := db.User{Username: "u1", Password: "x", Roles: db.RoleAuthor}
	moderator := db.User{Username: "m", Password: "x", Roles: db.RoleModerator}
	require.NoError(t, gdb.Create(&author).Error)
	require.NoError(t, gdb.Create(&moderator).Error)

	d, _ := newTestDispatcher(t, NewInboxSender(gdb), Config{})
	d.Start(ctx)

	articles := repository.NewArticleRepository(gdb)
	authz := service.NewRoleAuthorizer(gdb)
	drafts := service.NewArticleService(articles, authz, nil, nil)
	moderation := service.NewModerationService(articles, authz, nil, d)

	article, err := drafts.Create(ctx, author.ID, service.ArticleInput{Title: "Lunar Practice", Content: "Moon salutations."})
	require.NoError(t, err)
	_, err = moderation.Submit(ctx, article.ID, author.ID)
	require.NoError(t, err)
	_, err = moderation.Reject(ctx, article.ID, moderator.ID, "needs citations")
	require.NoError(t, err)

	d.Close()

	inbox := NewInboxService(gdb)
	notifications, err := inbox.List(ctx, author.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, db.NotificationArticleRejected, notifications[0].Kind)
	assert.Contains(t, notifications[0].Body, "needs citations")
	assert.Contains(t, notifications[0].Payload, `"article_title":"Lunar Practice"`)

	others, err := inbox.List(ctx, moderator.ID, false, 0)
	require.NoError(t, err)
	assert.Empty(t, others)
}
