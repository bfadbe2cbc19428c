package repository

import (
	"context"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/util"

	"gorm.io/gorm"
)

// CourseRepository 课程目录访问：知识组件归属和通过线
type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).First(&course, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// KnowledgeComponents 课程下的知识组件，topic 非空时限定主题范围
// 按创建序返回，调度器的决胜排序依赖这个稳定顺序
func (r *CourseRepository) KnowledgeComponents(ctx context.Context, courseID string, topic string) ([]model.KnowledgeComponent, error) {
	db := r.DB.WithContext(ctx).Where("course_id = ?", courseID)
	if topic != "" {
		db = db.Where("topic = ?", topic)
	}

	var kcs []model.KnowledgeComponent
	err := db.Order("sort_order ASC, created_at ASC").Find(&kcs).Error
	return kcs, err
}

func (r *CourseRepository) FindKnowledgeComponent(ctx context.Context, id string) (*model.KnowledgeComponent, error) {
	var kc model.KnowledgeComponent
	err := r.DB.WithContext(ctx).First(&kc, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrKnowledgeCompNotFound
	}
	if err != nil {
		return nil, err
	}
	return &kc, nil
}
