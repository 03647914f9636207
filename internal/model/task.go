package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskModel 任务
type TaskModel struct {
	Id        int64          `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// 归属
	ProjectId   int64  `json:"projectId" gorm:"not null;index"`
	MilestoneId *int64 `json:"milestoneId" gorm:"index"`
	AssigneeId  *int64 `json:"assigneeId" gorm:"index"`
	CreatedById int64  `json:"createdById" gorm:"not null"`

	// 基本信息
	Title          string       `json:"title" gorm:"not null"`
	Description    string       `json:"description" gorm:"type:text"`
	Status         TaskStatus   `json:"status" gorm:"type:varchar(32);not null;default:'TODO';index"`
	Priority       TaskPriority `json:"priority" gorm:"type:varchar(32);not null;default:'MEDIUM'"`
	EstimatedHours *float64     `json:"estimatedHours"`
	DueDate        *time.Time   `json:"dueDate"`

	// 审核信息
	ReviewStatus  ReviewStatus `json:"reviewStatus" gorm:"type:varchar(32);not null;default:'PENDING';index"`
	ReviewComment string       `json:"reviewComment" gorm:"type:text"`
	ReviewedById  *int64       `json:"reviewedById"`
	ReviewedAt    *time.Time   `json:"reviewedAt"`
	HasBugs       bool         `json:"hasBugs" gorm:"default:false"`

	// 关联
	Project   *ProjectModel   `json:"project,omitempty" gorm:"foreignKey:ProjectId"`
	Milestone *MilestoneModel `json:"milestone,omitempty" gorm:"foreignKey:MilestoneId"`
	Assignee  *UserModel      `json:"assignee,omitempty" gorm:"foreignKey:AssigneeId"`
}

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"        // 待处理
	TaskStatusInProgress TaskStatus = "IN_PROGRESS" // 进行中
	TaskStatusInReview   TaskStatus = "IN_REVIEW"   // 审核中
	TaskStatusCompleted  TaskStatus = "COMPLETED"   // 已完成
	TaskStatusBlocked    TaskStatus = "BLOCKED"     // 阻塞
)

// Valid 是否为已知状态
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusCompleted, TaskStatusBlocked:
		return true
	}
	return false
}

// TaskPriority 任务优先级
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// ReviewStatus 审核状态
type ReviewStatus string

const (
	ReviewStatusPending      ReviewStatus = "PENDING"       // 待审核
	ReviewStatusApproved     ReviewStatus = "APPROVED"      // 通过
	ReviewStatusRejected     ReviewStatus = "REJECTED"      // 驳回
	ReviewStatusNeedsChanges ReviewStatus = "NEEDS_CHANGES" // 需要修改
)

// TableName 自定义表名
func (TaskModel) TableName() string {
	return "tasks"
}
