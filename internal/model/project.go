package model

import (
	"time"
)

// ProjectModel 项目
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name        string        `json:"name" gorm:"not null"`
	Description string        `json:"description" gorm:"type:text"`
	Status      ProjectStatus `json:"status" gorm:"type:varchar(32);default:'ACTIVE'"`

	// 项目负责人
	ManagerId *int64     `json:"managerId"`
	Manager   *UserModel `json:"manager,omitempty" gorm:"foreignKey:ManagerId"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"    // 进行中
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"   // 暂停
	ProjectStatusCompleted ProjectStatus = "COMPLETED" // 已完成
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"  // 已归档
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "projects"
}
