package model

import (
	"time"

	"gorm.io/gorm"
)

// Course 课程基本信息（课程内容管理在外部系统，引擎只读取目标分数线和知识点归属）
type Course struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	TargetGrade float64        `gorm:"type:double;default:0.6" json:"targetGrade"` // 通过线 0.0 - 1.0
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}
