package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrActivityImmutable 活动记录只允许追加
var ErrActivityImmutable = errors.New("task activity is append-only")

// ActivityAction 活动类型
type ActivityAction string

const (
	ActivityCreated             ActivityAction = "CREATED"
	ActivityUpdated             ActivityAction = "UPDATED"
	ActivityStatusChanged       ActivityAction = "STATUS_CHANGED"
	ActivityAssigneeChanged     ActivityAction = "ASSIGNEE_CHANGED"
	ActivityPriorityChanged     ActivityAction = "PRIORITY_CHANGED"
	ActivityDueDateChanged      ActivityAction = "DUE_DATE_CHANGED"
	ActivityTitleChanged        ActivityAction = "TITLE_CHANGED"
	ActivityEstimateChanged     ActivityAction = "ESTIMATE_CHANGED"
	ActivityMilestoneChanged    ActivityAction = "MILESTONE_CHANGED"
	ActivityReviewStatusChanged ActivityAction = "REVIEW_STATUS_CHANGED"
	ActivityTimerStarted        ActivityAction = "TIMER_STARTED"
	ActivityTimerStopped        ActivityAction = "TIMER_STOPPED"
	ActivityTimeLogged          ActivityAction = "TIME_LOGGED"
	ActivityTimerFlagged        ActivityAction = "TIMER_FLAGGED"
)

// TaskActivityModel 任务活动记录
type TaskActivityModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`

	TaskId   int64          `json:"taskId" gorm:"not null;index"`
	UserId   int64          `json:"userId" gorm:"not null"`
	Action   ActivityAction `json:"action" gorm:"type:varchar(64);not null"`
	Field    string         `json:"field,omitempty"`
	OldValue string         `json:"oldValue,omitempty" gorm:"type:text"`
	NewValue string         `json:"newValue,omitempty" gorm:"type:text"`
	Metadata string         `json:"metadata,omitempty" gorm:"type:text"` // JSON

	// 关联
	Task *TaskModel `json:"-" gorm:"foreignKey:TaskId"`
	User *UserModel `json:"user,omitempty" gorm:"foreignKey:UserId"`
}

// BeforeUpdate 禁止修改
func (a *TaskActivityModel) BeforeUpdate(tx *gorm.DB) error {
	return ErrActivityImmutable
}

// BeforeDelete 禁止删除
func (a *TaskActivityModel) BeforeDelete(tx *gorm.DB) error {
	return ErrActivityImmutable
}

// TableName 自定义表名
func (TaskActivityModel) TableName() string {
	return "task_activities"
}
