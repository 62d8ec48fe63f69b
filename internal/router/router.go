package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cogscheduler/backend/internal/handler"
	"cogscheduler/backend/internal/middleware"
	"cogscheduler/backend/internal/pkg/logger"
	"cogscheduler/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	scheduleHandler *handler.ScheduleHandler,
	corsOrigins []string,
	log *logger.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestLog(log), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "cognitive-scheduler",
		})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(authService))
	authed.POST("/schedule", scheduleHandler.Schedule)
	authed.POST("/chat", scheduleHandler.Converse)
	authed.POST("/converse", scheduleHandler.Converse)
	authed.POST("/tlx-feedback", scheduleHandler.Feedback)
	authed.GET("/config", scheduleHandler.GetConfig)
	authed.PUT("/config", scheduleHandler.PutConfig)
	authed.GET("/profile", scheduleHandler.GetProfile)
	authed.PUT("/profile", scheduleHandler.PutProfile)
	authed.GET("/schedules", scheduleHandler.ListSchedules)
	authed.GET("/calendar/export", scheduleHandler.ExportCalendar)

	return engine
}
