package service

import (
	"context"
	"errors"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/util"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) loadMastery(t *testing.T, userID uint, courseID, kcID string) *model.MasteryRecord {
	t.Helper()
	var record model.MasteryRecord
	err := e.db.Where("user_id = ? AND course_id = ? AND knowledge_component_id = ?", userID, courseID, kcID).
		First(&record).Error
	require.NoError(t, err)
	return &record
}

func TestSubmitAnswerCorrectCreatesRecord(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 1)

	feedback, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		QuestionID:     "qA",
		SelectedOption: 1,
	})
	require.NoError(t, err)

	assert.True(t, feedback.IsCorrect)
	assert.Equal(t, 1, feedback.CorrectIndex)
	assert.Equal(t, "explanation for qA", feedback.Explanation)
	assert.InDelta(t, 0.3, feedback.PMasteryBefore, 1e-9)
	assert.InDelta(t, 0.6460674157, feedback.PMasteryAfter, 1e-9)
	assert.False(t, feedback.IsNewlyMastered)
	assert.Nil(t, feedback.Session)

	record := env.loadMastery(t, 1, "c1", "kcA")
	assert.InDelta(t, 0.6460674157, record.PMastery, 1e-9)
	assert.Equal(t, 1, record.TotalAttempts)
	assert.Equal(t, 1, record.TotalCorrect)

	var attempts []model.Attempt
	require.NoError(t, env.db.Find(&attempts).Error)
	require.Len(t, attempts, 1)
	assert.Equal(t, "qA", attempts[0].QuestionID)
	assert.Equal(t, "kcA", attempts[0].KnowledgeComponentID)
	assert.Equal(t, 1, attempts[0].SelectedOption)
	assert.True(t, attempts[0].IsCorrect)
}

func TestSubmitAnswerIncorrect(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 1)

	feedback, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		QuestionID:     "qA",
		SelectedOption: 3,
	})
	require.NoError(t, err)

	assert.False(t, feedback.IsCorrect)
	assert.InDelta(t, 0.1486486486, feedback.PMasteryAfter, 1e-9)

	record := env.loadMastery(t, 1, "c1", "kcA")
	assert.Equal(t, 1, record.TotalAttempts)
	assert.Equal(t, 0, record.TotalCorrect)
}

func TestSubmitAnswerNewlyMastered(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)
	env.seedMastery(t, 1, "c1", "kcA", 0.84, 4, 3)

	feedback, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		QuestionID:     "qA",
		SelectedOption: 0,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.9547738693, feedback.PMasteryAfter, 1e-9)
	assert.True(t, feedback.IsNewlyMastered)

	// 再答对一次不会重复标记"新掌握"
	feedback, err = env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		QuestionID:     "qA",
		SelectedOption: 0,
	})
	require.NoError(t, err)
	assert.False(t, feedback.IsNewlyMastered)
}

func TestSubmitAnswerInvalidOption(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)

	for _, option := range []int{-1, 4, 99} {
		_, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
			QuestionID:     "qA",
			SelectedOption: option,
		})
		assert.True(t, errors.Is(err, util.ErrInvalidOption), "option=%d", option)
	}

	// 非法提交不留任何痕迹
	var count int64
	require.NoError(t, env.db.Model(&model.MasteryRecord{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, env.db.Model(&model.Attempt{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		QuestionID:     "missing",
		SelectedOption: 0,
	})
	assert.True(t, errors.Is(err, util.ErrQuestionNotFound))
}

func TestSubmitAnswerSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedKC(t, "c1", "kcB", 2)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)
	env.seedQuestion(t, "c1", "kcB", "qB", 0)

	created, err := env.sessionSvc.CreateSession(context.Background(), 1, "c1", "")
	require.NoError(t, err)
	require.Equal(t, 2, created.TotalQuestions)

	first, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		SessionID:      created.SessionID,
		QuestionID:     created.Questions[0].ID,
		SelectedOption: 0,
	})
	require.NoError(t, err)
	require.NotNil(t, first.Session)
	assert.Equal(t, 1, first.Session.AnsweredCount)
	assert.Equal(t, 1, first.Session.CorrectCount)
	assert.False(t, first.Session.Completed)

	// 最后一题答完自动关闭会话
	second, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		SessionID:      created.SessionID,
		QuestionID:     created.Questions[1].ID,
		SelectedOption: 3,
	})
	require.NoError(t, err)
	require.NotNil(t, second.Session)
	assert.Equal(t, 2, second.Session.AnsweredCount)
	assert.Equal(t, 1, second.Session.CorrectCount)
	assert.True(t, second.Session.Completed)

	var session model.TestSession
	require.NoError(t, env.db.First(&session, "id = ?", created.SessionID).Error)
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.Equal(t, 2, session.AnsweredCount)
	assert.Equal(t, 1, session.CorrectCount)
	require.NotNil(t, session.CompletedAt)
	// 自动完成后补写通过率快照
	require.NotNil(t, session.PassChance)
	assert.Greater(t, *session.PassChance, 0.0)

	// 已关闭的会话拒绝继续提交
	_, err = env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		SessionID:      created.SessionID,
		QuestionID:     created.Questions[0].ID,
		SelectedOption: 0,
	})
	assert.True(t, errors.Is(err, util.ErrSessionClosed))
}

func TestSubmitAnswerSessionForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)

	created, err := env.sessionSvc.CreateSession(context.Background(), 1, "c1", "")
	require.NoError(t, err)

	_, err = env.answerSvc.SubmitAnswer(context.Background(), 2, SubmitAnswerRequest{
		SessionID:      created.SessionID,
		QuestionID:     "qA",
		SelectedOption: 0,
	})
	assert.True(t, errors.Is(err, util.ErrSessionForbidden))

	// 越权提交不产生会话计数
	var session model.TestSession
	require.NoError(t, env.db.First(&session, "id = ?", created.SessionID).Error)
	assert.Equal(t, 0, session.AnsweredCount)
}

func TestSubmitAnswerSessionNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)

	_, err := env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
		SessionID:      "missing",
		QuestionID:     "qA",
		SelectedOption: 0,
	})
	assert.True(t, errors.Is(err, util.ErrSessionNotFound))
}

func TestSubmitAnswerConcurrentSameKC(t *testing.T) {
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 0.6)
	env.seedKC(t, "c1", "kcA", 1)
	env.seedQuestion(t, "c1", "kcA", "qA", 0)

	const workers = 20

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.answerSvc.SubmitAnswer(context.Background(), 1, SubmitAnswerRequest{
				QuestionID:     "qA",
				SelectedOption: 0,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	// 并发首答只会懒创建一条记录，计数不丢失
	var count int64
	require.NoError(t, env.db.Model(&model.MasteryRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	record := env.loadMastery(t, 1, "c1", "kcA")
	assert.Equal(t, workers, record.TotalAttempts)
	assert.Equal(t, workers, record.TotalCorrect)
	assert.GreaterOrEqual(t, record.PMastery, 0.85)
	assert.LessOrEqual(t, record.PMastery, 1.0)

	require.NoError(t, env.db.Model(&model.Attempt{}).Count(&count).Error)
	assert.Equal(t, int64(workers), count)
}
