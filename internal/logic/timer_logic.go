package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"gorm.io/gorm"
)

// TimerLogic 计时器业务逻辑，保证每个用户最多一个运行中的计时器
type TimerLogic struct {
	db       *gorm.DB
	activity *ActivityLogic
	now      func() time.Time
}

// NewTimerLogic 创建计时器业务逻辑
func NewTimerLogic(db *gorm.DB, activity *ActivityLogic) *TimerLogic {
	return &TimerLogic{
		db:       db,
		activity: activity,
		now:      time.Now,
	}
}

// WithClock 替换时钟
func (l *TimerLogic) WithClock(now func() time.Time) *TimerLogic {
	l.now = now
	return l
}

// ActiveTimer 运行中的计时器及已计时秒数
type ActiveTimer struct {
	model.TimeEntryModel
	ElapsedSeconds int64 `json:"elapsedSeconds"`
}

// ManualEntryInput 手动补录参数
type ManualEntryInput struct {
	TaskId     int64
	StartTime  time.Time
	EndTime    time.Time
	Notes      string
	IsBillable *bool
}

// StartTimer 开始计时
func (l *TimerLogic) StartTimer(ctx context.Context, actor policy.Actor, taskId int64, notes string) (*model.TimeEntryModel, error) {
	var entry *model.TimeEntryModel

	// 检查与插入在同一事务内完成，并发插入由部分唯一索引兜底
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, taskId)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.StartTimer, policy.OwnedByPtr(task.AssigneeId)); err != nil {
			return err
		}

		running, err := findRunningEntry(tx, actor.Id)
		if err != nil {
			return err
		}
		if running != nil {
			return apperror.Conflict(fmt.Sprintf("a timer is already running on task %d", running.TaskId))
		}

		entry = &model.TimeEntryModel{
			TaskId:     task.Id,
			UserId:     actor.Id,
			StartTime:  l.now(),
			Notes:      notes,
			IsBillable: true,
		}
		if err := tx.Create(entry).Error; err != nil {
			if apperror.IsUniqueViolation(err) {
				return apperror.Conflict("a timer is already running")
			}
			return apperror.Internal("failed to create time entry", err)
		}

		_, err = l.activity.RecordEvent(tx, task.Id, actor.Id, model.ActivityTimerStarted, map[string]interface{}{
			"timeEntryId": entry.Id,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d started timer %d on task %d", actor.Id, entry.Id, entry.TaskId)
	return entry, nil
}

// StopTimer 停止计时，timeEntryId 为空时停止当前用户运行中的计时器
func (l *TimerLogic) StopTimer(ctx context.Context, actor policy.Actor, timeEntryId *int64, notes *string) (*model.TimeEntryModel, error) {
	var entry *model.TimeEntryModel

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if timeEntryId == nil {
			entry, err = findRunningEntry(tx, actor.Id)
			if err != nil {
				return err
			}
			if entry == nil {
				return apperror.NotFound("no running timer")
			}
		} else {
			entry, err = findTimeEntry(tx, *timeEntryId)
			if err != nil {
				return err
			}
			if err := policy.Authorize(actor, policy.ModifyTimeEntry, policy.OwnedBy(entry.UserId)); err != nil {
				return err
			}
			if !entry.IsRunning() {
				return apperror.Conflict("timer already stopped")
			}
		}

		end := l.now()
		duration, skewed := computeDuration(entry.StartTime, end)
		updates := map[string]interface{}{
			"end_time": end,
			"duration": duration,
		}
		if notes != nil {
			updates["notes"] = *notes
		}
		if skewed {
			updates["flagged"] = true
			updates["flag_reason"] = model.FlagReasonClockSkew
			logger.Warn("Time entry %d stopped before its start time (start=%s end=%s), duration clamped to 0",
				entry.Id, entry.StartTime.Format(time.RFC3339), end.Format(time.RFC3339))
		}

		result := tx.Model(entry).Where("end_time IS NULL").Updates(updates)
		if result.Error != nil {
			return apperror.Internal("failed to stop timer", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.Conflict("timer already stopped")
		}

		metadata := map[string]interface{}{
			"timeEntryId": entry.Id,
			"duration":    duration,
		}
		if skewed {
			metadata["clockSkew"] = true
		}
		if _, err := l.activity.RecordEvent(tx, entry.TaskId, actor.Id, model.ActivityTimerStopped, metadata); err != nil {
			return err
		}

		entry, err = findTimeEntry(tx, entry.Id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d stopped timer %d after %d seconds", actor.Id, entry.Id, *entry.Duration)
	return entry, nil
}

// GetActiveTimer 获取用户运行中的计时器，没有时返回 nil
func (l *TimerLogic) GetActiveTimer(ctx context.Context, userId int64) (*ActiveTimer, error) {
	entry, err := findRunningEntry(l.db.WithContext(ctx).Preload("Task"), userId)
	if err != nil || entry == nil {
		return nil, err
	}

	elapsed, _ := computeDuration(entry.StartTime, l.now())
	return &ActiveTimer{TimeEntryModel: *entry, ElapsedSeconds: elapsed}, nil
}

// CreateManualEntry 手动补录已结束的计时记录
func (l *TimerLogic) CreateManualEntry(ctx context.Context, actor policy.Actor, input ManualEntryInput) (*model.TimeEntryModel, error) {
	if err := validateManualEntry(input); err != nil {
		return nil, err
	}

	var entry *model.TimeEntryModel
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTask(tx, input.TaskId)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.LogTime, policy.OwnedByPtr(task.AssigneeId)); err != nil {
			return err
		}

		duration, _ := computeDuration(input.StartTime, input.EndTime)
		end := input.EndTime
		billable := true
		if input.IsBillable != nil {
			billable = *input.IsBillable
		}

		entry = &model.TimeEntryModel{
			TaskId:     task.Id,
			UserId:     actor.Id,
			StartTime:  input.StartTime,
			EndTime:    &end,
			Duration:   &duration,
			Notes:      input.Notes,
			IsBillable: billable,
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperror.Internal("failed to create time entry", err)
		}

		_, err = l.activity.RecordEvent(tx, task.Id, actor.Id, model.ActivityTimeLogged, map[string]interface{}{
			"timeEntryId": entry.Id,
			"duration":    duration,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d logged %d seconds on task %d", actor.Id, *entry.Duration, entry.TaskId)
	return entry, nil
}

// validateManualEntry 验证手动补录数据
func validateManualEntry(input ManualEntryInput) error {
	verr := apperror.Validation("invalid time entry")
	if input.TaskId <= 0 {
		verr.AddField("taskId", "taskId is required")
	}
	if input.StartTime.IsZero() {
		verr.AddField("startTime", "startTime is required")
	}
	if input.EndTime.IsZero() {
		verr.AddField("endTime", "endTime is required")
	}
	if !input.StartTime.IsZero() && !input.EndTime.IsZero() && !input.EndTime.After(input.StartTime) {
		verr.AddField("endTime", "endTime must be after startTime")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
