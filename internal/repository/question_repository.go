package repository

import (
	"context"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/util"

	"gorm.io/gorm"
)

// QuestionRepository 题库访问（题目的创建和维护在外部系统完成）
type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).First(&q, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Eligible 某知识组件下可出的题目，排除近期做过的
func (r *QuestionRepository) Eligible(ctx context.Context, kcID string, excluding map[string]bool) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.WithContext(ctx).
		Where("knowledge_component_id = ?", kcID).
		Order("created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	if len(excluding) == 0 {
		return questions, nil
	}

	fresh := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if !excluding[q.ID] {
			fresh = append(fresh, q)
		}
	}
	return fresh, nil
}

// ListByIDs 按给定顺序返回题目（会话恢复时保持创建时固定的顺序）
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var questions []model.Question
	err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}
