package service

import (
	"context"
	"encoding/json"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/repository"
	"mastery_engine_backend/pkg/monitoring"
	"strings"
	"time"

	"gorm.io/gorm"

	"mastery_engine_backend/internal/util"
)

// AnswerService 答题管线：判题 → BKT 更新 → 原子落库 → 流水 → 会话计数
type AnswerService struct {
	db           *gorm.DB
	masteryRepo  *repository.MasteryRepository
	attemptRepo  *repository.AttemptRepository
	sessionRepo  *repository.SessionRepository
	questionRepo *repository.QuestionRepository
	courseRepo   *repository.CourseRepository
	passSvc      *PassChanceService
	cfg          *config.Config
	now          func() time.Time
}

func NewAnswerService(
	db *gorm.DB,
	masteryRepo *repository.MasteryRepository,
	attemptRepo *repository.AttemptRepository,
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	courseRepo *repository.CourseRepository,
	passSvc *PassChanceService,
	cfg *config.Config,
) *AnswerService {
	return &AnswerService{
		db:           db,
		masteryRepo:  masteryRepo,
		attemptRepo:  attemptRepo,
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		courseRepo:   courseRepo,
		passSvc:      passSvc,
		cfg:          cfg,
		now:          time.Now,
	}
}

type SubmitAnswerRequest struct {
	SessionID      string `json:"sessionId"`
	QuestionID     string `json:"questionId" binding:"required"`
	SelectedOption int    `json:"selectedOption"`
}

type SessionProgress struct {
	SessionID      string `json:"sessionId"`
	AnsweredCount  int    `json:"answeredCount"`
	CorrectCount   int    `json:"correctCount"`
	TotalQuestions int    `json:"totalQuestions"`
	Completed      bool   `json:"completed"`
}

type AnswerFeedback struct {
	QuestionID           string           `json:"questionId"`
	KnowledgeComponentID string           `json:"knowledgeComponentId"`
	IsCorrect            bool             `json:"isCorrect"`
	CorrectIndex         int              `json:"correctIndex"`
	Explanation          string           `json:"explanation"`
	PMasteryBefore       float64          `json:"pMasteryBefore"`
	PMasteryAfter        float64          `json:"pMasteryAfter"`
	IsNewlyMastered      bool             `json:"isNewlyMastered"`
	Session              *SessionProgress `json:"session,omitempty"`
}

// SubmitAnswer 处理一次提交
// 掌握度写入、流水追加和会话计数在同一事务内提交，任何一步失败整体回滚，
// 绝不返回部分成功；同键并发由行锁串行化，死锁/锁等待超时作为可重试冲突上抛
func (s *AnswerService) SubmitAnswer(ctx context.Context, userID uint, req SubmitAnswerRequest) (*AnswerFeedback, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	question, err := s.questionRepo.FindByID(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}

	var options []string
	if err := json.Unmarshal([]byte(question.Options), &options); err != nil {
		return nil, err
	}
	if req.SelectedOption < 0 || req.SelectedOption >= len(options) {
		return nil, util.ErrInvalidOption
	}

	kc, err := s.courseRepo.FindKnowledgeComponent(ctx, question.KnowledgeComponentID)
	if err != nil {
		return nil, err
	}

	correct := req.SelectedOption == question.CorrectIndex
	now := s.now()

	feedback := &AnswerFeedback{
		QuestionID:           question.ID,
		KnowledgeComponentID: kc.ID,
		IsCorrect:            correct,
		CorrectIndex:         question.CorrectIndex,
		Explanation:          question.Explanation,
	}

	autoCompleted := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var session *model.TestSession
		if req.SessionID != "" {
			session, err = s.sessionRepo.LockByID(ctx, tx, req.SessionID)
			if err != nil {
				return err
			}
			if session.UserID != userID {
				return util.ErrSessionForbidden
			}
			if session.Status == model.SessionCompleted {
				return util.ErrSessionClosed
			}
		}

		record, err := s.masteryRepo.GetOrCreateForUpdate(ctx, tx, userID, question.CourseID, kc, s.cfg.Engine.DefaultPMastery, now)
		if err != nil {
			return err
		}

		prior := BKTParams{
			PMastery: record.PMastery,
			PLearn:   record.PLearn,
			PSlip:    record.PSlip,
			PGuess:   record.PGuess,
		}
		posterior := BKTUpdate(prior, correct)

		feedback.PMasteryBefore = record.PMastery
		feedback.PMasteryAfter = posterior
		threshold := s.cfg.Engine.MasteryThreshold
		feedback.IsNewlyMastered = record.PMastery < threshold && posterior >= threshold

		if err := s.masteryRepo.ApplyUpdate(ctx, tx, record.ID, posterior, correct, now); err != nil {
			return err
		}

		attempt := &model.Attempt{
			UserID:               userID,
			QuestionID:           question.ID,
			KnowledgeComponentID: kc.ID,
			SessionID:            req.SessionID,
			SelectedOption:       req.SelectedOption,
			IsCorrect:            correct,
			CreatedAt:            now,
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			return err
		}

		if session != nil {
			if err := s.sessionRepo.BumpCounters(ctx, tx, session.ID, correct, now); err != nil {
				return err
			}

			answered := session.AnsweredCount + 1
			correctCount := session.CorrectCount
			if correct {
				correctCount++
			}

			// 最后一题答完即关闭会话，显式 complete 调用对已关闭的会话是幂等的
			if answered >= session.TotalQuestions {
				if err := s.sessionRepo.MarkCompleted(ctx, tx, session.ID, nil, now); err != nil {
					return err
				}
				autoCompleted = true
			}

			feedback.Session = &SessionProgress{
				SessionID:      session.ID,
				AnsweredCount:  answered,
				CorrectCount:   correctCount,
				TotalQuestions: session.TotalQuestions,
				Completed:      autoCompleted,
			}
		}

		return nil
	})
	if err != nil {
		return nil, translateDBError(err)
	}

	// 事务提交后的旁路动作，失败不影响已提交的结果
	s.attemptRepo.MarkRecentlySeen(ctx, userID, question.ID, now, time.Duration(s.cfg.Engine.RecentWindowHours)*time.Hour)

	monitoring.AnswersSubmitted.WithLabelValues(boolLabel(correct)).Inc()
	if feedback.IsNewlyMastered {
		monitoring.KCsMastered.Inc()
	}

	if autoCompleted {
		if result, err := s.passSvc.Compute(ctx, userID, question.CourseID); err == nil && result.Determined {
			s.sessionRepo.SetPassChanceSnapshot(ctx, req.SessionID, result.Probability)
		}
	}

	return feedback, nil
}

// translateDBError MySQL 死锁(1213)和锁等待超时(1205)对调用方是可重试冲突
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Deadlock found") || strings.Contains(msg, "Lock wait timeout") {
		return util.ErrConcurrencyConflict
	}
	return err
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
