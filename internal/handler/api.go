package handler

import (
	"github.com/articleflow/internal/notify"
	"github.com/articleflow/internal/repository"
	"github.com/articleflow/internal/service"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	articles   *service.ArticleService
	moderation *service.ModerationService
	queries    *service.QueryService
	authz      *service.RoleAuthorizer
	inbox      *notify.InboxService
	logger     logrus.FieldLogger
}

// NewAPI constructs a handler set with shared services. listeners 在审核事务提交后被调用，
// 通常是通知 Dispatcher；previews 为 nil 时导语只从正文摘录。
func NewAPI(gdb *gorm.DB, previews service.PreviewGenerator, logger logrus.FieldLogger, listeners ...service.DecisionListener) *API {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	articleRepo := repository.NewArticleRepository(gdb)
	logRepo := repository.NewModerationLogRepository(gdb)
	authz := service.NewRoleAuthorizer(gdb)

	return &API{
		db:         gdb,
		articles:   service.NewArticleService(articleRepo, authz, previews, logger),
		moderation: service.NewModerationService(articleRepo, authz, logger, listeners...),
		queries:    service.NewQueryService(articleRepo, logRepo, authz),
		authz:      authz,
		inbox:      notify.NewInboxService(gdb),
		logger:     logger,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Moderation exposes the state machine, e.g. to register extra listeners.
func (a *API) Moderation() *service.ModerationService {
	return a.moderation
}
