package logic

import (
	"errors"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/model"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage 分页参数兜底
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// findTask 查找任务
func findTask(db *gorm.DB, id int64) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := db.Take(&task, id).Error; err != nil {
		return nil, apperror.FromStore(err, "task not found")
	}
	return &task, nil
}

// findTimeEntry 查找计时记录
func findTimeEntry(db *gorm.DB, id int64) (*model.TimeEntryModel, error) {
	var entry model.TimeEntryModel
	if err := db.Take(&entry, id).Error; err != nil {
		return nil, apperror.FromStore(err, "time entry not found")
	}
	return &entry, nil
}

// findRunningEntry 查找用户正在运行的计时记录，没有时返回 nil
func findRunningEntry(db *gorm.DB, userId int64) (*model.TimeEntryModel, error) {
	var entry model.TimeEntryModel
	err := db.Where("user_id = ? AND end_time IS NULL", userId).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Internal("failed to query running timer", err)
	}
	return &entry, nil
}

// computeDuration 计算时长（整秒，向下取整）。结束时间早于开始时间时返回 0 和 true。
func computeDuration(start, end time.Time) (int64, bool) {
	seconds := int64(end.Sub(start) / time.Second)
	if seconds < 0 {
		return 0, true
	}
	return seconds, false
}
