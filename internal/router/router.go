package router

import (
	"reflect"
	"strings"

	"github.com/blues/catalyst/internal/assistant"
	"github.com/blues/catalyst/internal/auth"
	"github.com/blues/catalyst/internal/handler"
	"github.com/blues/catalyst/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, tokens *auth.TokenManager, sessions *assistant.SessionStore) *gin.Engine {
	registerJSONFieldNames()

	r := gin.New()

	// 中间件
	r.Use(middleware.RequestLog())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "catalyst",
		})
	})

	// API版本组，全部需要 bearer token
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(db, tokens, handler.HandleError))
	{
		// 计时相关路由
		timeEntryHandler := handler.NewTimeEntryHandler(db)
		timeEntries := v1.Group("/time-entries")
		{
			timeEntries.POST("/start", timeEntryHandler.StartTimer)
			timeEntries.POST("/stop", timeEntryHandler.StopTimer)
			timeEntries.GET("/active", timeEntryHandler.GetActiveTimer)
			timeEntries.POST("/manual", timeEntryHandler.CreateManualEntry)
			timeEntries.GET("", timeEntryHandler.GetTimeEntries)
			timeEntries.GET("/:id", timeEntryHandler.GetTimeEntry)
			timeEntries.PATCH("/:id", timeEntryHandler.UpdateTimeEntry)
			timeEntries.DELETE("/:id", timeEntryHandler.DeleteTimeEntry)
		}

		// 任务相关路由
		taskHandler := handler.NewTaskHandler(db)
		tasks := v1.Group("/tasks")
		{
			tasks.GET("/review/pending", taskHandler.GetTasksForReview)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.GetTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/review", taskHandler.ReviewTask)
			tasks.GET("/:id/activities", taskHandler.GetTaskActivities)
		}

		// 助手对话历史
		assistantHandler := handler.NewAssistantHandler(sessions)
		history := v1.Group("/assistant/history")
		{
			history.GET("", assistantHandler.GetHistory)
			history.POST("", assistantHandler.AppendMessage)
			history.DELETE("", assistantHandler.ClearHistory)
		}
	}

	return r
}

// registerJSONFieldNames 校验错误使用 json 字段名
func registerJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}
