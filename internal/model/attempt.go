package model

import (
	"time"
)

// Attempt 不可变的作答流水，只追加不修改
// 用于近期出题过滤和审计
type Attempt struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID               uint      `gorm:"index:idx_attempt_user_time;not null" json:"userId"`
	QuestionID           string    `gorm:"index;type:varchar(36);not null" json:"questionId"`
	KnowledgeComponentID string    `gorm:"index;type:varchar(36);not null" json:"knowledgeComponentId"`
	SessionID            string    `gorm:"index;type:varchar(36)" json:"sessionId,omitempty"`
	SelectedOption       int       `json:"selectedOption"`
	IsCorrect            bool      `json:"isCorrect"`
	CreatedAt            time.Time `gorm:"index:idx_attempt_user_time" json:"createdAt"`
}

func (Attempt) TableName() string {
	return "attempts"
}
