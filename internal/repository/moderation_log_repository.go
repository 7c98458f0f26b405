package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/articleflow/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SortOrder 审核日志排序方向
type SortOrder string

const (
	// SortNewestFirst 用于界面展示
	SortNewestFirst SortOrder = "desc"
	// SortOldestFirst 用于回放
	SortOldestFirst SortOrder = "asc"
)

// ParseSortOrder 解析 asc/desc，其余取值回退到 SortNewestFirst。
func ParseSortOrder(raw string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortOldestFirst)) {
		return SortOldestFirst
	}
	return SortNewestFirst
}

const defaultLogBatchSize = 50

// ModerationLogRepository 审核日志的只追加存储
type ModerationLogRepository interface {
	Append(ctx context.Context, entry *db.ModerationLog) error
	ListByArticle(ctx context.Context, articleID uint, order SortOrder) iter.Seq2[db.ModerationLog, error]
}

type moderationLogRepository struct {
	db        *gorm.DB
	batchSize int
}

var _ ModerationLogRepository = (*moderationLogRepository)(nil)

// NewModerationLogRepository creates a gorm backed ModerationLogRepository.
func NewModerationLogRepository(gdb *gorm.DB) ModerationLogRepository {
	return &moderationLogRepository{db: gdb, batchSize: defaultLogBatchSize}
}

func (r *moderationLogRepository) Append(ctx context.Context, entry *db.ModerationLog) error {
	return appendLog(r.db.WithContext(ctx), entry)
}

// ListByArticle 返回惰性序列，按批次分页读取；每次 range 都会重新查询，因此可重复遍历。
func (r *moderationLogRepository) ListByArticle(ctx context.Context, articleID uint, order SortOrder) iter.Seq2[db.ModerationLog, error] {
	batchSize := r.batchSize
	if batchSize <= 0 {
		batchSize = defaultLogBatchSize
	}

	direction := "desc"
	cursorOp := "<"
	if order == SortOldestFirst {
		direction = "asc"
		cursorOp = ">"
	}

	return func(yield func(db.ModerationLog, error) bool) {
		var (
			lastAt  time.Time
			lastID  uint
			started bool
		)

		for {
			query := r.db.WithContext(ctx).
				Preload("Moderator").
				Where("article_id = ?", articleID)
			if started {
				query = query.Where(
					fmt.Sprintf("(moderated_at %s ?) OR (moderated_at = ? AND id %s ?)", cursorOp, cursorOp),
					lastAt, lastAt, lastID,
				)
			}

			var batch []db.ModerationLog
			if err := query.
				Order("moderated_at " + direction).
				Order("id " + direction).
				Limit(batchSize).
				Find(&batch).Error; err != nil {
				yield(db.ModerationLog{}, fmt.Errorf("list moderation logs for article %d: %w", articleID, err))
				return
			}

			for _, entry := range batch {
				if !yield(entry, nil) {
					return
				}
			}

			if len(batch) < batchSize {
				return
			}

			last := batch[len(batch)-1]
			lastAt, lastID, started = last.ModeratedAt, last.ID, true
		}
	}
}

// CollectLogs 将惰性序列读取为切片，遇到错误立即返回。
func CollectLogs(seq iter.Seq2[db.ModerationLog, error]) ([]db.ModerationLog, error) {
	entries := make([]db.ModerationLog, 0)
	for entry, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func appendLog(tx *gorm.DB, entry *db.ModerationLog) error {
	if entry == nil {
		return errors.New("moderation log entry cannot be nil")
	}
	if entry.ArticleID == 0 || entry.ModeratedBy == 0 {
		return errors.New("moderation log entry requires article and moderator")
	}
	if entry.ModeratedAt.IsZero() {
		entry.ModeratedAt = time.Now().UTC()
	}
	if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
		return fmt.Errorf("append moderation log for article %d: %w", entry.ArticleID, err)
	}
	return nil
}
