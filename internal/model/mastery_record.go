package model

import (
	"time"
)

// MasteryRecord 用户对某课程某知识组件的 BKT 掌握状态
// (user_id, course_id, knowledge_component_id) 唯一，首次作答时懒创建
// 只有答题管线会修改该表
type MasteryRecord struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               uint      `gorm:"index:idx_user_course_kc,unique;not null" json:"userId"`
	CourseID             string    `gorm:"index:idx_user_course_kc,unique;type:varchar(36);not null" json:"courseId"`
	KnowledgeComponentID string    `gorm:"index:idx_user_course_kc,unique;type:varchar(36);not null" json:"knowledgeComponentId"`
	PMastery             float64   `gorm:"type:double;default:0.3" json:"pMastery"`
	PLearn               float64   `gorm:"type:double;default:0.1" json:"pLearn"`
	PSlip                float64   `gorm:"type:double;default:0.1" json:"pSlip"`
	PGuess               float64   `gorm:"type:double;default:0.25" json:"pGuess"`
	TotalAttempts        int       `gorm:"default:0" json:"totalAttempts"`
	TotalCorrect         int       `gorm:"default:0" json:"totalCorrect"`
	LastUpdated          time.Time `json:"lastUpdated"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (MasteryRecord) TableName() string {
	return "mastery_records"
}
