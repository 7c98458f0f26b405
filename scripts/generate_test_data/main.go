package main

import (
	"context"
	"fmt"
	"log"

	"github.com/articleflow/internal/config"
	"github.com/articleflow/internal/db"
	"github.com/articleflow/internal/logging"
	"github.com/articleflow/internal/repository"
	"github.com/articleflow/internal/service"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type seedArticle struct {
	title    string
	content  string
	category string
	// final 决定文章最终停留的状态
	final   db.ArticleStatus
	comment string
}

var seedArticles = []seedArticle{
	{
		title:    "Sun Salutation for Beginners",
		content:  "# Sun Salutation\n\nTwelve postures linked with the breath. Start slowly and keep the knees soft.",
		category: "practice",
		final:    db.StatusPublished,
		comment:  "Clear and friendly.",
	},
	{
		title:    "Why We Chant Om",
		content:  "Chanting at the start of class settles the room.\n\n- focus\n- breath\n- community",
		category: "philosophy",
		final:    db.StatusPendingReview,
	},
	{
		title:    "Ayurvedic Breakfasts",
		content:  "Warm oats with cardamom and ghee are grounding in autumn.",
		category: "nutrition",
		final:    db.StatusDraft,
		comment:  "Please add sources for the dosha claims.",
	},
	{
		title:    "Studio Etiquette",
		content:  "Arrive ten minutes early and silence your phone.",
		category: "community",
		final:    db.StatusDraft,
	},
}

// 测试数据生成器
func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath, logging.GormLevel(cfg.LogLevel)); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	if err := generate(context.Background(), db.DB, logging.New(cfg.LogLevel, cfg.LogFormat)); err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Println("作者: writer (密码: writer123)")
	fmt.Println("审核员: moderator (密码: moderator123)")
	fmt.Printf("文章: %d篇，覆盖草稿、待审核、已发布与被驳回\n", len(seedArticles))
}

// generate 通过服务层走完整的审核流程，保证审核日志与状态一致
func generate(ctx context.Context, gdb *gorm.DB, logger logrus.FieldLogger) error {
	if err := db.EnsureUser(gdb, "writer", "writer123", db.RoleAuthor); err != nil {
		return err
	}
	if err := db.EnsureUser(gdb, "moderator", "moderator123", db.RoleModerator); err != nil {
		return err
	}

	var writer, moderator db.User
	if err := gdb.Where("username = ?", "writer").First(&writer).Error; err != nil {
		return err
	}
	if err := gdb.Where("username = ?", "moderator").First(&moderator).Error; err != nil {
		return err
	}

	articles := repository.NewArticleRepository(gdb)
	authz := service.NewRoleAuthorizer(gdb)
	drafts := service.NewArticleService(articles, authz, nil, logger)
	moderation := service.NewModerationService(articles, authz, logger)

	for _, seed := range seedArticles {
		article, err := drafts.Create(ctx, writer.ID, service.ArticleInput{
			Title:    seed.title,
			Content:  seed.content,
			Category: seed.category,
		})
		if err != nil {
			return fmt.Errorf("create %q: %w", seed.title, err)
		}

		// 没有审核意见的草稿保持原样
		if seed.final == db.StatusDraft && seed.comment == "" {
			continue
		}
		if _, err := moderation.Submit(ctx, article.ID, writer.ID); err != nil {
			return fmt.Errorf("submit %q: %w", seed.title, err)
		}

		switch seed.final {
		case db.StatusPublished:
			_, err = moderation.ApproveWithComment(ctx, article.ID, moderator.ID, seed.comment)
		case db.StatusDraft:
			_, err = moderation.Reject(ctx, article.ID, moderator.ID, seed.comment)
		}
		if err != nil {
			return fmt.Errorf("moderate %q: %w", seed.title, err)
		}
	}
	return nil
}
