package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// TestSession 自适应测试会话
// 题目顺序在创建时固定 (QuestionIDs JSON 数组)，之后不再变化，刷新恢复时原样返回
type TestSession struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         uint           `gorm:"index;not null" json:"userId"`
	CourseID       string         `gorm:"index;type:varchar(36);not null" json:"courseId"`
	Status         SessionStatus  `gorm:"size:20;not null;default:in_progress" json:"status"`
	QuestionIDs    string         `gorm:"type:json;not null" json:"-"` // ["qid1", "qid2", ...]
	TotalQuestions int            `gorm:"default:0" json:"totalQuestions"`
	AnsweredCount  int            `gorm:"default:0" json:"answeredCount"`
	CorrectCount   int            `gorm:"default:0" json:"correctCount"`
	PassChance     *float64       `gorm:"type:double" json:"passChance,omitempty"` // 完成时的通过率快照
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

func (s *TestSession) QuestionIDList() []string {
	var ids []string
	if err := json.Unmarshal([]byte(s.QuestionIDs), &ids); err != nil {
		return nil
	}
	return ids
}

func (s *TestSession) SetQuestionIDs(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	s.QuestionIDs = string(data)
	s.TotalQuestions = len(ids)
	return nil
}
