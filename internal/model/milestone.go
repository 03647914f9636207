package model

import (
	"time"
)

// MilestoneModel 项目里程碑
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProjectId int64           `json:"projectId" gorm:"not null;index"`
	Title     string          `json:"title" gorm:"not null"`
	Amount    float64         `json:"amount" gorm:"default:0"`
	Currency  string          `json:"currency" gorm:"type:varchar(8);default:'USD'"`
	Status    MilestoneStatus `json:"status" gorm:"type:varchar(32);default:'PENDING'"`
	DueDate   *time.Time      `json:"dueDate"`

	// 关联
	Project *ProjectModel `json:"project,omitempty" gorm:"foreignKey:ProjectId;constraint:OnDelete:CASCADE"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "PENDING"     // 待开始
	MilestoneStatusInProgress MilestoneStatus = "IN_PROGRESS" // 进行中
	MilestoneStatusCompleted  MilestoneStatus = "COMPLETED"   // 已完成
	MilestoneStatusPaid       MilestoneStatus = "PAID"        // 已结算
)

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestones"
}
