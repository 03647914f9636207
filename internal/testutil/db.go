// Package testutil 提供测试用的 sqlite 数据库与基础数据
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/blues/catalyst/internal/config"
	"github.com/blues/catalyst/internal/database"
	"github.com/blues/catalyst/internal/model"
	"gorm.io/gorm"
)

// NewDB 在临时目录创建已迁移的 sqlite 数据库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "catalyst.db"),
	})
	if err != nil {
		t.Fatalf("init test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser 创建用户
func CreateUser(t testing.TB, db *gorm.DB, name string, role model.Role) *model.UserModel {
	t.Helper()
	user := &model.UserModel{
		Name:       name,
		Email:      name + "@example.com",
		Role:       role,
		IsActive:   true,
		HourlyRate: 50,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

// CreateProject 创建项目
func CreateProject(t testing.TB, db *gorm.DB, name string) *model.ProjectModel {
	t.Helper()
	project := &model.ProjectModel{Name: name, Status: model.ProjectStatusActive}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return project
}

// CreateTask 创建任务，assignee 为空表示未分配
func CreateTask(t testing.TB, db *gorm.DB, project *model.ProjectModel, creator, assignee *model.UserModel, status model.TaskStatus) *model.TaskModel {
	t.Helper()
	task := &model.TaskModel{
		ProjectId:    project.Id,
		CreatedById:  creator.Id,
		Title:        "task for " + project.Name,
		Status:       status,
		Priority:     model.TaskPriorityMedium,
		ReviewStatus: model.ReviewStatusPending,
	}
	if assignee != nil {
		task.AssigneeId = &assignee.Id
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
