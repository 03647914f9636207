package model

import (
	"time"
)

// 计时记录被标记的原因
const (
	FlagReasonClockSkew = "clock_skew" // 结束时间早于开始时间，时长已置 0
	FlagReasonOverdue   = "overdue"    // 计时器运行时间过长
)

// TimeEntryModel 计时记录，EndTime 为空表示计时器正在运行
type TimeEntryModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TaskId int64 `json:"taskId" gorm:"not null;index"`
	UserId int64 `json:"userId" gorm:"not null;index:idx_time_entries_user_start"`

	StartTime  time.Time  `json:"startTime" gorm:"not null;index:idx_time_entries_user_start"`
	EndTime    *time.Time `json:"endTime"`
	Duration   *int64     `json:"duration"` // 秒，运行中为空
	Notes      string     `json:"notes" gorm:"type:text"`
	IsBillable bool       `json:"isBillable"`

	// 审计标记
	Flagged    bool   `json:"flagged" gorm:"default:false"`
	FlagReason string `json:"flagReason,omitempty"`

	// 关联
	Task *TaskModel `json:"task,omitempty" gorm:"foreignKey:TaskId"`
	User *UserModel `json:"user,omitempty" gorm:"foreignKey:UserId"`
}

// IsRunning 是否正在计时
func (e *TimeEntryModel) IsRunning() bool {
	return e.EndTime == nil
}

// TableName 自定义表名
func (TimeEntryModel) TableName() string {
	return "time_entries"
}
