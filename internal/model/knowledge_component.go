package model

import (
	"time"

	"gorm.io/gorm"
)

// KnowledgeComponent 知识组件：课程内可追踪的最小技能单元
// BKT 参数 (p_learn/p_slip/p_guess) 固定在知识组件上，学习记录懒创建时取用
type KnowledgeComponent struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CourseID  string         `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Topic     string         `gorm:"size:255;index" json:"topic"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Order     int            `gorm:"column:sort_order;default:0" json:"order"` // 创建序，调度排序的最终决胜键
	PLearn    float64        `gorm:"type:double;default:0.1" json:"pLearn"`
	PSlip     float64        `gorm:"type:double;default:0.1" json:"pSlip"`
	PGuess    float64        `gorm:"type:double;default:0.25" json:"pGuess"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (KnowledgeComponent) TableName() string {
	return "knowledge_components"
}
