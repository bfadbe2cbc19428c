package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/repository"
	"mastery_engine_backend/internal/util"
	"mastery_engine_backend/pkg/monitoring"
	"sort"
	"time"
)

// SessionService 自适应会话：出题调度 + 会话生命周期
type SessionService struct {
	courseRepo   *repository.CourseRepository
	questionRepo *repository.QuestionRepository
	masteryRepo  *repository.MasteryRepository
	attemptRepo  *repository.AttemptRepository
	sessionRepo  *repository.SessionRepository
	passSvc      *PassChanceService
	cfg          *config.Config
	now          func() time.Time
	randIntn     func(n int) int
}

func NewSessionService(
	courseRepo *repository.CourseRepository,
	questionRepo *repository.QuestionRepository,
	masteryRepo *repository.MasteryRepository,
	attemptRepo *repository.AttemptRepository,
	sessionRepo *repository.SessionRepository,
	passSvc *PassChanceService,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		courseRepo:   courseRepo,
		questionRepo: questionRepo,
		masteryRepo:  masteryRepo,
		attemptRepo:  attemptRepo,
		sessionRepo:  sessionRepo,
		passSvc:      passSvc,
		cfg:          cfg,
		now:          time.Now,
		randIntn:     rand.Intn,
	}
}

// QuestionView 下发给客户端的题目，不含正确选项下标和解析
type QuestionView struct {
	ID                   string   `json:"id"`
	KnowledgeComponentID string   `json:"knowledgeComponentId"`
	Text                 string   `json:"text"`
	Options              []string `json:"options"`
}

type SessionResponse struct {
	SessionID      string         `json:"sessionId,omitempty"`
	CourseID       string         `json:"courseId"`
	AllMastered    bool           `json:"allMastered"`
	Questions      []QuestionView `json:"questions"`
	AnsweredCount  int            `json:"answeredCount"`
	CorrectCount   int            `json:"correctCount"`
	TotalQuestions int            `json:"totalQuestions"`
	Status         string         `json:"status,omitempty"`
	PassChance     *float64       `json:"passChance,omitempty"`
}

// 调度用的候选项：知识组件 + 当前掌握状态
type kcCandidate struct {
	kc       model.KnowledgeComponent
	pMastery float64
	attempts int
	seq      int // 课程内的稳定创建序
}

// CreateSession 创建自适应会话
// 未掌握的知识组件按掌握度升序取前 N 个（弱项优先），并列时先比作答次数再比创建序；
// 每个知识组件出一道题，优先选回看窗口内没做过的，选无可选时允许复用；
// 范围内全部已掌握时返回 all_mastered，不建会话
func (s *SessionService) CreateSession(ctx context.Context, userID uint, courseID string, topic string) (*SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.courseRepo.FindByID(ctx, courseID); err != nil {
		return nil, err
	}

	kcs, err := s.courseRepo.KnowledgeComponents(ctx, courseID, topic)
	if err != nil {
		return nil, err
	}
	if len(kcs) == 0 {
		return nil, util.ErrNoQuestionsAvailable
	}

	records, err := s.masteryRepo.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	recordByKC := make(map[string]model.MasteryRecord, len(records))
	for _, r := range records {
		recordByKC[r.KnowledgeComponentID] = r
	}

	threshold := s.cfg.Engine.MasteryThreshold
	candidates := make([]kcCandidate, 0, len(kcs))
	for i, kc := range kcs {
		c := kcCandidate{kc: kc, pMastery: s.cfg.Engine.DefaultPMastery, seq: i}
		if r, ok := recordByKC[kc.ID]; ok {
			c.pMastery = r.PMastery
			c.attempts = r.TotalAttempts
		}
		if c.pMastery >= threshold {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return &SessionResponse{
			CourseID:    courseID,
			AllMastered: true,
			Questions:   []QuestionView{},
		}, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].pMastery != candidates[j].pMastery {
			return candidates[i].pMastery < candidates[j].pMastery
		}
		if candidates[i].attempts != candidates[j].attempts {
			return candidates[i].attempts < candidates[j].attempts
		}
		return candidates[i].seq < candidates[j].seq
	})

	if len(candidates) > s.cfg.Engine.MaxSessionQuestions {
		candidates = candidates[:s.cfg.Engine.MaxSessionQuestions]
	}

	now := s.now()
	window := time.Duration(s.cfg.Engine.RecentWindowHours) * time.Hour
	recentlySeen, err := s.attemptRepo.RecentQuestionIDs(ctx, userID, now.Add(-window))
	if err != nil {
		return nil, err
	}

	questionIDs := make([]string, 0, len(candidates))
	views := make([]QuestionView, 0, len(candidates))
	for _, c := range candidates {
		pool, err := s.questionRepo.Eligible(ctx, c.kc.ID, recentlySeen)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			// 全在窗口内做过，允许复用
			pool, err = s.questionRepo.Eligible(ctx, c.kc.ID, nil)
			if err != nil {
				return nil, err
			}
		}
		if len(pool) == 0 {
			continue // 该知识组件暂无题目
		}

		picked := pool[s.randIntn(len(pool))]
		questionIDs = append(questionIDs, picked.ID)

		view, err := sanitizeQuestion(picked)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	if len(questionIDs) == 0 {
		return nil, util.ErrNoQuestionsAvailable
	}

	session := &model.TestSession{
		ID:        model.GenerateUUID(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    model.SessionInProgress,
		CreatedAt: now,
	}
	if err := session.SetQuestionIDs(questionIDs); err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	monitoring.SessionsCreated.Inc()

	return &SessionResponse{
		SessionID:      session.ID,
		CourseID:       courseID,
		Questions:      views,
		TotalQuestions: session.TotalQuestions,
		Status:         string(session.Status),
	}, nil
}

// ResumeSession 恢复进行中的会话：题目顺序与创建时完全一致，计数器原样返回
// 不存在的会话报 not found，已完成的会话不可恢复，调用方需要重新开一场
func (s *SessionService) ResumeSession(ctx context.Context, userID uint, sessionID string) (*SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionForbidden
	}
	if session.Status == model.SessionCompleted {
		return nil, util.ErrSessionNotResumable
	}

	questions, err := s.questionRepo.ListByIDs(ctx, session.QuestionIDList())
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		view, err := sanitizeQuestion(q)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return &SessionResponse{
		SessionID:      session.ID,
		CourseID:       session.CourseID,
		Questions:      views,
		AnsweredCount:  session.AnsweredCount,
		CorrectCount:   session.CorrectCount,
		TotalQuestions: session.TotalQuestions,
		Status:         string(session.Status),
	}, nil
}

// CompleteSession 显式关闭会话并写入通过率快照，重复调用幂等
func (s *SessionService) CompleteSession(ctx context.Context, userID uint, sessionID string) (*SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionForbidden
	}

	if session.Status != model.SessionCompleted {
		var snapshot *float64
		if result, err := s.passSvc.Compute(ctx, userID, session.CourseID); err == nil && result.Determined {
			snapshot = &result.Probability
		}

		if err := s.sessionRepo.MarkCompleted(ctx, nil, session.ID, snapshot, s.now()); err != nil {
			return nil, translateDBError(err)
		}

		session, err = s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
	}

	return &SessionResponse{
		SessionID:      session.ID,
		CourseID:       session.CourseID,
		AnsweredCount:  session.AnsweredCount,
		CorrectCount:   session.CorrectCount,
		TotalQuestions: session.TotalQuestions,
		Status:         string(session.Status),
		PassChance:     session.PassChance,
	}, nil
}

// RefreshSessionGauge 刷新进行中会话数监控指标，后台定时任务调用
func (s *SessionService) RefreshSessionGauge(ctx context.Context) error {
	count, err := s.sessionRepo.CountInProgress(ctx)
	if err != nil {
		return err
	}
	monitoring.SessionsInProgress.Set(float64(count))
	return nil
}

func sanitizeQuestion(q model.Question) (QuestionView, error) {
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return QuestionView{}, err
	}
	return QuestionView{
		ID:                   q.ID,
		KnowledgeComponentID: q.KnowledgeComponentID,
		Text:                 q.Text,
		Options:              options,
	}, nil
}
