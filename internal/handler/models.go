package handler

import (
	"time"

	"github.com/blues/catalyst/internal/assistant"
	"github.com/blues/catalyst/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// ListResponse 分页列表
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// 计时相关请求模型

// StartTimerRequest 开始计时
type StartTimerRequest struct {
	TaskId int64  `json:"taskId" binding:"required,gt=0"`
	Notes  string `json:"notes" binding:"max=2000"`
}

// StopTimerRequest 停止计时，请求体可以为空
type StopTimerRequest struct {
	TimeEntryId *int64  `json:"timeEntryId" binding:"omitempty,gt=0"`
	Notes       *string `json:"notes" binding:"omitempty,max=2000"`
}

// ManualEntryRequest 手动补录
type ManualEntryRequest struct {
	TaskId     int64     `json:"taskId" binding:"required,gt=0"`
	StartTime  time.Time `json:"startTime" binding:"required"`
	EndTime    time.Time `json:"endTime" binding:"required"`
	Notes      string    `json:"notes" binding:"max=2000"`
	IsBillable *bool     `json:"isBillable"`
}

// UpdateTimeEntryRequest 修改计时记录
type UpdateTimeEntryRequest struct {
	StartTime  *time.Time `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
	Notes      *string    `json:"notes" binding:"omitempty,max=2000"`
	IsBillable *bool      `json:"isBillable"`
}

// 任务相关请求模型

// CreateTaskRequest 创建任务
type CreateTaskRequest struct {
	ProjectId      int64              `json:"projectId" binding:"required,gt=0"`
	MilestoneId    *int64             `json:"milestoneId" binding:"omitempty,gt=0"`
	AssigneeId     *int64             `json:"assigneeId" binding:"omitempty,gt=0"`
	Title          string             `json:"title" binding:"required,max=200"`
	Description    string             `json:"description"`
	Priority       model.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	EstimatedHours *float64           `json:"estimatedHours" binding:"omitempty,gte=0"`
	DueDate        *time.Time         `json:"dueDate"`
}

// UpdateTaskRequest 修改任务，未出现的字段保持不变
type UpdateTaskRequest struct {
	Title          *string             `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string             `json:"description"`
	Status         *model.TaskStatus   `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS IN_REVIEW COMPLETED BLOCKED"`
	Priority       *model.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeId     *int64              `json:"assigneeId" binding:"omitempty,gt=0"`
	MilestoneId    *int64              `json:"milestoneId" binding:"omitempty,gt=0"`
	EstimatedHours *float64            `json:"estimatedHours" binding:"omitempty,gte=0"`
	DueDate        *time.Time          `json:"dueDate"`
}

// ReviewTaskRequest 审核任务
type ReviewTaskRequest struct {
	ReviewStatus  model.ReviewStatus `json:"reviewStatus" binding:"required"`
	ReviewComment string             `json:"reviewComment" binding:"max=5000"`
	HasBugs       bool               `json:"hasBugs"`
}

// 助手相关请求模型

// AppendMessageRequest 追加对话消息
type AppendMessageRequest struct {
	Role    assistant.MessageRole `json:"role" binding:"required,oneof=user assistant system"`
	Content string                `json:"content" binding:"required,max=8000"`
}
