package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Models 返回需要自动迁移的全部模型，测试与初始化共用。
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Article{},
		&ModerationLog{},
		&Notification{},
	}
}

// Init 初始化数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 articleflow.db。
func Init(databasePath string, logLevel logger.LogLevel) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "articleflow.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	gdb, err := Open(path, logLevel)
	if err != nil {
		return err
	}
	DB = gdb
	return nil
}

// Open 打开 sqlite 并迁移表结构，不修改全局 DB。
// sqlite 只允许单个写入者，连接池限制为 1，事务之间由连接池排队。
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	// 历史数据中 moderation_status 可能为空
	if err := gdb.Model(&Article{}).
		Where("moderation_status = '' OR moderation_status IS NULL").
		Update("moderation_status", ModerationNone).Error; err != nil {
		return nil, err
	}

	return gdb, nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
