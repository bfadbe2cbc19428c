package repository

import (
	"context"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/util"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.TestSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.TestSession, error) {
	var session model.TestSession
	err := r.DB.WithContext(ctx).First(&session, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID 事务内加行锁读取会话，后续计数器更新依赖该锁串行化
func (r *SessionRepository) LockByID(ctx context.Context, tx *gorm.DB, id string) (*model.TestSession, error) {
	query := tx.WithContext(ctx)
	// sqlite 不支持 FOR UPDATE，其单写锁本身就能串行化
	if tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var session model.TestSession
	err := query.First(&session, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// BumpCounters 累加会话计数器，WHERE 限定 in_progress：关闭后的会话不再吸收提交
func (r *SessionRepository) BumpCounters(ctx context.Context, tx *gorm.DB, id string, correct bool, now time.Time) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}

	result := tx.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND status = ?", id, model.SessionInProgress).
		UpdateColumns(map[string]interface{}{
			"answered_count": gorm.Expr("answered_count + 1"),
			"correct_count":  gorm.Expr("correct_count + ?", correctInc),
			"updated_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrSessionClosed
	}
	return nil
}

// MarkCompleted 置为 completed，幂等：已完成的会话直接返回成功，快照不覆盖
func (r *SessionRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, id string, passChance *float64, now time.Time) error {
	db := tx
	if db == nil {
		db = r.DB
	}

	updates := map[string]interface{}{
		"status":       model.SessionCompleted,
		"completed_at": now,
		"updated_at":   now,
	}
	if passChance != nil {
		updates["pass_chance"] = *passChance
	}

	return db.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND status = ?", id, model.SessionInProgress).
		UpdateColumns(updates).Error
}

// SetPassChanceSnapshot 补写完成时的通过率快照，已有快照不覆盖
func (r *SessionRepository) SetPassChanceSnapshot(ctx context.Context, id string, passChance float64) error {
	return r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("id = ? AND pass_chance IS NULL", id).
		UpdateColumn("pass_chance", passChance).Error
}

func (r *SessionRepository) CountInProgress(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.TestSession{}).
		Where("status = ?", model.SessionInProgress).
		Count(&count).Error
	return count, err
}
