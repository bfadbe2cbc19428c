package repository

import (
	"context"
	"mastery_engine_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MasteryRepository struct {
	DB *gorm.DB
}

func NewMasteryRepository(db *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: db}
}

// GetOrCreateForUpdate 在事务内取出并锁定掌握记录，不存在则按知识组件参数懒创建
// 先走 OnConflict DoNothing，再加行锁读取：两个首次作答并发到达时，
// 唯一索引保证只有一条记录落库，两边拿到的都是同一行
func (r *MasteryRepository) GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, userID uint, courseID string, kc *model.KnowledgeComponent, defaultPMastery float64, now time.Time) (*model.MasteryRecord, error) {
	record := &model.MasteryRecord{
		UserID:               userID,
		CourseID:             courseID,
		KnowledgeComponentID: kc.ID,
		PMastery:             defaultPMastery,
		PLearn:               kc.PLearn,
		PSlip:                kc.PSlip,
		PGuess:               kc.PGuess,
		LastUpdated:          now,
	}

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "knowledge_component_id"}},
			DoNothing: true,
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}

	query := tx.WithContext(ctx)
	// sqlite 不支持 FOR UPDATE，其单写锁本身就能串行化
	if tx.Dialector.Name() == "mysql" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var locked model.MasteryRecord
	err = query.
		Where("user_id = ? AND course_id = ? AND knowledge_component_id = ?", userID, courseID, kc.ID).
		First(&locked).Error
	if err != nil {
		return nil, err
	}

	return &locked, nil
}

// ApplyUpdate 写入后验掌握度并累加计数，必须在持有行锁的同一事务内调用
func (r *MasteryRepository) ApplyUpdate(ctx context.Context, tx *gorm.DB, recordID uint, posterior float64, correct bool, now time.Time) error {
	correctInc := 0
	if correct {
		correctInc = 1
	}

	return tx.WithContext(ctx).
		Model(&model.MasteryRecord{}).
		Where("id = ?", recordID).
		UpdateColumns(map[string]interface{}{
			"p_mastery":      posterior,
			"total_attempts": gorm.Expr("total_attempts + 1"),
			"total_correct":  gorm.Expr("total_correct + ?", correctInc),
			"last_updated":   now,
			"updated_at":     now,
		}).Error
}

func (r *MasteryRepository) ListByUserAndCourse(ctx context.Context, userID uint, courseID string) ([]model.MasteryRecord, error) {
	var records []model.MasteryRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&records).Error
	return records, err
}

// CountAttempted 统计该用户在课程下已有作答的知识组件数，用于判定通过率是否可估
func (r *MasteryRepository) CountAttempted(ctx context.Context, userID uint, courseID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.MasteryRecord{}).
		Where("user_id = ? AND course_id = ? AND total_attempts > 0", userID, courseID).
		Count(&count).Error
	return count, err
}
