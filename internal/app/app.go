package app

import (
	"context"
	"log"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/controller"
	"mastery_engine_backend/internal/repository"
	"mastery_engine_backend/internal/service"
	"mastery_engine_backend/pkg/database"
	"mastery_engine_backend/pkg/logger"
	"mastery_engine_backend/pkg/monitoring"
	"mastery_engine_backend/pkg/security"
	"mastery_engine_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	course   *repository.CourseRepository
	question *repository.QuestionRepository
	mastery  *repository.MasteryRepository
	attempt  *repository.AttemptRepository
	session  *repository.SessionRepository
}

type services struct {
	passChance *service.PassChanceService
	answer     *service.AnswerService
	session    *service.SessionService
}

type controllers struct {
	session *controller.SessionController
	answer  *controller.AnswerController
	mastery *controller.MasteryController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置热更新入口，configwatcher 回调
func (a *App) ReloadConfig(cfg *config.Config) {
	*a.Config = *cfg
	logger.Log.Info("Config reloaded",
		zap.Float64("mastery_threshold", cfg.Engine.MasteryThreshold),
		zap.Int("max_session_questions", cfg.Engine.MaxSessionQuestions))
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		course:   repository.NewCourseRepository(db),
		question: repository.NewQuestionRepository(db),
		mastery:  repository.NewMasteryRepository(db),
		attempt:  repository.NewAttemptRepository(db, rdb),
		session:  repository.NewSessionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	s.passChance = service.NewPassChanceService(repos.course, repos.mastery, cfg)
	s.answer = service.NewAnswerService(db, repos.mastery, repos.attempt, repos.session, repos.question, repos.course, s.passChance, cfg)
	s.session = service.NewSessionService(repos.course, repos.question, repos.mastery, repos.attempt, repos.session, s.passChance, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		session: controller.NewSessionController(s.session),
		answer:  controller.NewAnswerController(s.answer),
		mastery: controller.NewMasteryController(s.passChance),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(&cfg.CORS))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(&cfg.RateLimit))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s.session.RefreshSessionGauge(ctx); err != nil {
				logger.Log.Error("session gauge refresh error", zap.Error(err))
			}
			cancel()
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 近期出题过滤有流水表兜底，缓存不可用时降级运行
		logger.Log.Warn("Failed to initialize redis, running without recent-question cache", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, db)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("mastery-engine", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	a.shutdownTracing(ctx)

	log.Println("Server exiting")
}

// shutdownTracing 退出前冲刷并关闭 tracer，未启用追踪时是空操作
func (a *App) shutdownTracing(ctx context.Context) {
	if a.tracer == nil {
		return
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
}
