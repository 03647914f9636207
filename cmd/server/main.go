package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/catalyst/internal/assistant"
	"github.com/blues/catalyst/internal/auth"
	"github.com/blues/catalyst/internal/config"
	"github.com/blues/catalyst/internal/database"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/router"
	"github.com/blues/catalyst/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Fatal("Failed to initialize token manager: %v", err)
	}
	sessions := assistant.NewSessionStore(cfg.Assistant)

	// 设置Gin模式，生产模式下响应中不返回内部错误信息
	switch {
	case cfg.Server.IsRelease():
		gin.SetMode(gin.ReleaseMode)
		logger.Info("Running in release mode, internal error details are hidden")
	case cfg.Server.Mode != "":
		gin.SetMode(cfg.Server.Mode)
	}

	// 初始化路由
	r := router.Setup(db, tokens, sessions)

	// 启动定时任务
	jobs, err := scheduler.NewManager(db, cfg)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}
