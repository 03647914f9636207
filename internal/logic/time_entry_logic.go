package logic

import (
	"context"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"gorm.io/gorm"
)

// TimeEntryLogic 计时记录管理
type TimeEntryLogic struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTimeEntryLogic 创建计时记录业务逻辑
func NewTimeEntryLogic(db *gorm.DB) *TimeEntryLogic {
	return &TimeEntryLogic{db: db, now: time.Now}
}

// WithClock 替换时钟
func (l *TimeEntryLogic) WithClock(now func() time.Time) *TimeEntryLogic {
	l.now = now
	return l
}

// TimeEntryFilter 列表查询条件
type TimeEntryFilter struct {
	UserId   *int64
	TaskId   *int64
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TimeEntryUpdate 可修改字段，nil 表示不修改
type TimeEntryUpdate struct {
	StartTime  *time.Time
	EndTime    *time.Time
	Notes      *string
	IsBillable *bool
}

// GetTimeEntry 获取计时记录
func (l *TimeEntryLogic) GetTimeEntry(ctx context.Context, actor policy.Actor, id int64) (*model.TimeEntryModel, error) {
	entry, err := findTimeEntry(l.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ViewTimeEntry, policy.OwnedBy(entry.UserId)); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListTimeEntries 分页获取计时记录，非管理层级只能查看自己的记录
func (l *TimeEntryLogic) ListTimeEntries(ctx context.Context, actor policy.Actor, filter TimeEntryFilter) ([]model.TimeEntryModel, int64, error) {
	if !policy.Allows(actor, policy.ListAllTimeEntries, policy.NoOwner) {
		if filter.UserId != nil && *filter.UserId != actor.Id {
			return nil, 0, apperror.Authorization("cannot list other users' time entries")
		}
		filter.UserId = &actor.Id
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := l.db.WithContext(ctx).Model(&model.TimeEntryModel{})
	if filter.UserId != nil {
		query = query.Where("user_id = ?", *filter.UserId)
	}
	if filter.TaskId != nil {
		query = query.Where("task_id = ?", *filter.TaskId)
	}
	if filter.From != nil {
		query = query.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("start_time < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("failed to count time entries", err)
	}

	var entries []model.TimeEntryModel
	offset := (page - 1) * pageSize
	if err := query.Order("start_time DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, apperror.Internal("failed to list time entries", err)
	}

	return entries, total, nil
}

// UpdateTimeEntry 修改计时记录，已结束的记录按新的起止时间重算时长
func (l *TimeEntryLogic) UpdateTimeEntry(ctx context.Context, actor policy.Actor, id int64, input TimeEntryUpdate) (*model.TimeEntryModel, error) {
	if input.StartTime == nil && input.EndTime == nil && input.Notes == nil && input.IsBillable == nil {
		return nil, apperror.Validation("no fields to update")
	}

	var entry *model.TimeEntryModel
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = findTimeEntry(tx, id)
		if err != nil {
			return err
		}
		// 归属以数据库中的值为准
		if err := policy.Authorize(actor, policy.ModifyTimeEntry, policy.OwnedBy(entry.UserId)); err != nil {
			return err
		}

		// 运行中的计时器只能通过 StopTimer 结束
		if entry.IsRunning() {
			if input.EndTime != nil {
				return apperror.Conflict("timer is still running, stop it instead of setting endTime")
			}
			if input.StartTime != nil && input.StartTime.After(l.now()) {
				return apperror.ValidationField("startTime", "startTime cannot be in the future")
			}
		}

		updates := make(map[string]interface{})
		start := entry.StartTime
		if input.StartTime != nil {
			start = *input.StartTime
			updates["start_time"] = start
		}
		end := entry.EndTime
		if input.EndTime != nil {
			end = input.EndTime
			updates["end_time"] = *end
		}
		if input.Notes != nil {
			updates["notes"] = *input.Notes
		}
		if input.IsBillable != nil {
			updates["is_billable"] = *input.IsBillable
		}

		if end != nil && (input.StartTime != nil || input.EndTime != nil) {
			if !end.After(start) {
				return apperror.ValidationField("endTime", "endTime must be after startTime")
			}
			duration, _ := computeDuration(start, *end)
			updates["duration"] = duration
			if entry.FlagReason == model.FlagReasonClockSkew {
				updates["flagged"] = false
				updates["flag_reason"] = ""
			}
		}

		if err := tx.Model(entry).Updates(updates).Error; err != nil {
			return apperror.Internal("failed to update time entry", err)
		}

		entry, err = findTimeEntry(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d updated time entry %d", actor.Id, id)
	return entry, nil
}

// DeleteTimeEntry 删除计时记录
func (l *TimeEntryLogic) DeleteTimeEntry(ctx context.Context, actor policy.Actor, id int64) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := findTimeEntry(tx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.DeleteTimeEntry, policy.OwnedBy(entry.UserId)); err != nil {
			return err
		}
		if err := tx.Delete(entry).Error; err != nil {
			return apperror.Internal("failed to delete time entry", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("User %d deleted time entry %d", actor.Id, id)
	return nil
}
