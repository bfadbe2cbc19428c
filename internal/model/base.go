package model

import "github.com/google/uuid"

// GenerateUUID 字符串主键（会话等）的生成入口
func GenerateUUID() string {
	return uuid.New().String()
}
