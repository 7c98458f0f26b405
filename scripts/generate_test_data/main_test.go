package main

import (
	"context"
	"testing"

	"github.com/articleflow/internal/db"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm/logger"
)

func TestGenerateSeedsEveryStatus(t *testing.T) {
	gdb, err := db.Open("file:seed-data?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	log, _ := test.NewNullLogger()
	if err := generate(context.Background(), gdb, log); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	var articles []db.Article
	if err := gdb.Order("id asc").Find(&articles).Error; err != nil {
		t.Fatalf("failed to list articles: %v", err)
	}
	if len(articles) != len(seedArticles) {
		t.Fatalf("expected %d articles, got %d", len(seedArticles), len(articles))
	}
	for i, article := range articles {
		if article.Status != seedArticles[i].final {
			t.Fatalf("article %q: expected status %s, got %s", article.Title, seedArticles[i].final, article.Status)
		}
	}
	if articles[2].ModerationStatus != db.ModerationRejected {
		t.Fatalf("expected rejected draft, got %s", articles[2].ModerationStatus)
	}

	var logs int64
	gdb.Model(&db.ModerationLog{}).Count(&logs)
	if logs != 2 {
		t.Fatalf("expected 2 moderation log entries, got %d", logs)
	}
}
