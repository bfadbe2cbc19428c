package service

import (
	"fmt"
	"math/rand"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/model"
	"mastery_engine_backend/internal/repository"
	"mastery_engine_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	courseRepo *repository.CourseRepository
	quesRepo   *repository.QuestionRepository
	mastRepo   *repository.MasteryRepository
	attRepo    *repository.AttemptRepository
	sessRepo   *repository.SessionRepository
	passSvc    *PassChanceService
	answerSvc  *AnswerService
	sessionSvc *SessionService
}

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			MasteryThreshold:    0.85,
			MaxSessionQuestions: 10,
			RecentWindowHours:   24,
			DefaultPMastery:     0.3,
			DefaultPLearn:       0.1,
			DefaultPSlip:        0.1,
			DefaultPGuess:       0.25,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", rand.Int63())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库走单连接，事务天然串行
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := testConfig()
	courseRepo := repository.NewCourseRepository(db)
	quesRepo := repository.NewQuestionRepository(db)
	mastRepo := repository.NewMasteryRepository(db)
	attRepo := repository.NewAttemptRepository(db, nil)
	sessRepo := repository.NewSessionRepository(db)

	passSvc := NewPassChanceService(courseRepo, mastRepo, cfg)
	answerSvc := NewAnswerService(db, mastRepo, attRepo, sessRepo, quesRepo, courseRepo, passSvc, cfg)
	sessionSvc := NewSessionService(courseRepo, quesRepo, mastRepo, attRepo, sessRepo, passSvc, cfg)
	// 出题选择固定取第一个，测试可预期
	sessionSvc.randIntn = func(n int) int { return 0 }

	return &testEnv{
		db:         db,
		cfg:        cfg,
		courseRepo: courseRepo,
		quesRepo:   quesRepo,
		mastRepo:   mastRepo,
		attRepo:    attRepo,
		sessRepo:   sessRepo,
		passSvc:    passSvc,
		answerSvc:  answerSvc,
		sessionSvc: sessionSvc,
	}
}

func (e *testEnv) seedCourse(t *testing.T, id string, targetGrade float64) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Course{
		ID:          id,
		Title:       "Course " + id,
		TargetGrade: targetGrade,
	}).Error)
}

func (e *testEnv) seedKC(t *testing.T, courseID, id string, order int) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.KnowledgeComponent{
		ID:       id,
		CourseID: courseID,
		Title:    "KC " + id,
		Order:    order,
		PLearn:   0.1,
		PSlip:    0.1,
		PGuess:   0.25,
	}).Error)
}

func (e *testEnv) seedQuestion(t *testing.T, courseID, kcID, id string, correctIndex int) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.Question{
		ID:                   id,
		CourseID:             courseID,
		KnowledgeComponentID: kcID,
		Text:                 "Question " + id,
		Options:              `["A","B","C","D"]`,
		CorrectIndex:         correctIndex,
		Explanation:          "explanation for " + id,
	}).Error)
}

func (e *testEnv) seedMastery(t *testing.T, userID uint, courseID, kcID string, pMastery float64, attempts, correct int) {
	t.Helper()
	require.NoError(t, e.db.Create(&model.MasteryRecord{
		UserID:               userID,
		CourseID:             courseID,
		KnowledgeComponentID: kcID,
		PMastery:             pMastery,
		PLearn:               0.1,
		PSlip:                0.1,
		PGuess:               0.25,
		TotalAttempts:        attempts,
		TotalCorrect:         correct,
		LastUpdated:          time.Now(),
	}).Error)
}
