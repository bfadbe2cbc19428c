package model

import (
	"time"

	"gorm.io/gorm"
)

// Question 题库中的单选题，归属一个知识组件
// Options 为 JSON 字符串数组，正确选项下标和解析只在服务端判定时使用
type Question struct {
	ID                   string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CourseID             string         `gorm:"index;type:varchar(36);not null" json:"courseId"`
	KnowledgeComponentID string         `gorm:"index;type:varchar(36);not null" json:"knowledgeComponentId"`
	Text                 string         `gorm:"type:text;not null" json:"text"`
	Options              string         `gorm:"type:json" json:"options"` // ["A", "B", ...]
	CorrectIndex         int            `gorm:"not null" json:"-"`
	Explanation          string         `gorm:"type:text" json:"-"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}
