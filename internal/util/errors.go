package util

import "errors"

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrKnowledgeCompNotFound = errors.New("knowledge component not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotResumable  = errors.New("session is not resumable")
	ErrSessionClosed        = errors.New("session already completed")
	ErrSessionForbidden     = errors.New("session belongs to another user")
	ErrInvalidOption        = errors.New("selected option index out of range")
	ErrNoQuestionsAvailable = errors.New("no questions available for this course")
	ErrConcurrencyConflict  = errors.New("concurrent update conflict, please retry")
)
