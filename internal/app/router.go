package app

import (
	"mastery_engine_backend/docs"
	"mastery_engine_backend/internal/config"
	"mastery_engine_backend/internal/middleware"
	"mastery_engine_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		// 自适应测试会话
		authGroup.POST("/courses/:courseId/sessions", c.session.CreateSession)
		authGroup.GET("/sessions/:id", c.session.ResumeSession)
		authGroup.POST("/sessions/:id/complete", c.session.CompleteSession)

		// 答题
		authGroup.POST("/answers", c.answer.SubmitAnswer)

		// 掌握度读取
		authGroup.GET("/courses/:courseId/pass-chance", c.mastery.GetPassChance)
		authGroup.GET("/courses/:courseId/mastery", c.mastery.GetMasteryOverview)
	}
}
