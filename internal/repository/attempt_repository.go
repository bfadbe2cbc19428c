package repository

import (
	"context"
	"fmt"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/pkg/logger"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB  *gorm.DB
	RDB *redis.Client
}

func NewAttemptRepository(db *gorm.DB, rdb *redis.Client) *AttemptRepository {
	return &AttemptRepository{DB: db, RDB: rdb}
}

func recentQuestionsKey(userID uint) string {
	return fmt.Sprintf("recent_questions:%d", userID)
}

// Create 追加一条作答流水（事务内调用）
func (r *AttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *model.Attempt) error {
	return tx.WithContext(ctx).Create(attempt).Error
}

// MarkRecentlySeen 事务提交后把题目写入该用户的近期出题缓存 (ZSET，score=时间戳)
// 缓存失败不影响主流程，调度时会回落到流水表
func (r *AttemptRepository) MarkRecentlySeen(ctx context.Context, userID uint, questionID string, now time.Time, window time.Duration) {
	if r.RDB == nil {
		return
	}
	key := recentQuestionsKey(userID)
	pipe := r.RDB.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.Unix()), Member: questionID})
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-window).Unix(), 10))
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("failed to cache recently seen question", zap.Error(err))
	}
}

// RecentQuestionIDs 该用户在回看窗口内做过的题目，优先读缓存，缓存不可用时查流水表
func (r *AttemptRepository) RecentQuestionIDs(ctx context.Context, userID uint, since time.Time) (map[string]bool, error) {
	seen := make(map[string]bool)

	if r.RDB != nil {
		ids, err := r.RDB.ZRangeByScore(ctx, recentQuestionsKey(userID), &redis.ZRangeBy{
			Min: strconv.FormatInt(since.Unix(), 10),
			Max: "+inf",
		}).Result()
		if err == nil && len(ids) > 0 {
			for _, id := range ids {
				seen[id] = true
			}
			return seen, nil
		}
		if err != nil && err != redis.Nil {
			logger.Log.Warn("recent questions cache read failed, falling back to attempts table", zap.Error(err))
		}
	}

	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.Attempt{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Distinct().
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}
