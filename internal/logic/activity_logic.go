package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/model"
	"gorm.io/gorm"
)

// fieldActions 字段名到活动类型的映射，未列出的字段记为 UPDATED
var fieldActions = map[string]model.ActivityAction{
	"status":         model.ActivityStatusChanged,
	"assigneeId":     model.ActivityAssigneeChanged,
	"priority":       model.ActivityPriorityChanged,
	"dueDate":        model.ActivityDueDateChanged,
	"reviewStatus":   model.ActivityReviewStatusChanged,
	"title":          model.ActivityTitleChanged,
	"estimatedHours": model.ActivityEstimateChanged,
	"milestoneId":    model.ActivityMilestoneChanged,
}

// ActionForField 字段对应的活动类型
func ActionForField(field string) model.ActivityAction {
	if action, ok := fieldActions[field]; ok {
		return action
	}
	return model.ActivityUpdated
}

// ActivityLogic 任务活动记录业务逻辑，只追加不修改
type ActivityLogic struct {
	db *gorm.DB
}

// NewActivityLogic 创建活动记录业务逻辑
func NewActivityLogic(db *gorm.DB) *ActivityLogic {
	return &ActivityLogic{db: db}
}

// Record 追加一条活动记录，tx 为空时使用默认连接
func (a *ActivityLogic) Record(tx *gorm.DB, activity *model.TaskActivityModel) error {
	if tx == nil {
		tx = a.db
	}
	if activity.Id != 0 {
		return model.ErrActivityImmutable
	}
	if err := tx.Create(activity).Error; err != nil {
		return fmt.Errorf("record task activity: %w", err)
	}
	return nil
}

// RecordEvent 记录不涉及字段变更的事件（计时开始/结束等）
func (a *ActivityLogic) RecordEvent(tx *gorm.DB, taskId, userId int64, action model.ActivityAction, metadata map[string]interface{}) (*model.TaskActivityModel, error) {
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	activity := &model.TaskActivityModel{
		TaskId:   taskId,
		UserId:   userId,
		Action:   action,
		Metadata: encoded,
	}
	if err := a.Record(tx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// RecordChange 字段值变化时追加一条活动记录，值未变化时返回 nil
func (a *ActivityLogic) RecordChange(tx *gorm.DB, taskId, userId int64, field string, oldValue, newValue interface{}) (*model.TaskActivityModel, error) {
	return a.RecordChangeWithMetadata(tx, taskId, userId, field, oldValue, newValue, nil)
}

// RecordChangeWithMetadata 同 RecordChange，附带结构化元数据
func (a *ActivityLogic) RecordChangeWithMetadata(tx *gorm.DB, taskId, userId int64, field string, oldValue, newValue interface{}, metadata map[string]interface{}) (*model.TaskActivityModel, error) {
	oldStr, newStr := formatValue(oldValue), formatValue(newValue)
	if oldStr == newStr {
		return nil, nil
	}

	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return nil, err
	}
	activity := &model.TaskActivityModel{
		TaskId:   taskId,
		UserId:   userId,
		Action:   ActionForField(field),
		Field:    field,
		OldValue: oldStr,
		NewValue: newStr,
		Metadata: encoded,
	}
	if err := a.Record(tx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// ListTaskActivities 获取任务活动记录，最新的在前
func (a *ActivityLogic) ListTaskActivities(ctx context.Context, taskId int64) ([]model.TaskActivityModel, error) {
	db := a.db.WithContext(ctx)
	if _, err := findTask(db, taskId); err != nil {
		return nil, err
	}

	var activities []model.TaskActivityModel
	if err := db.Preload("User").
		Where("task_id = ?", taskId).
		Order("id DESC").
		Find(&activities).Error; err != nil {
		return nil, apperror.Internal("failed to list task activities", err)
	}
	return activities, nil
}

func encodeMetadata(metadata map[string]interface{}) (string, error) {
	if len(metadata) == 0 {
		return "", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode activity metadata: %w", err)
	}
	return string(data), nil
}

// formatValue 将字段值规范化为字符串，nil 指针记为空串
func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}

	switch val := rv.Interface().(type) {
	case time.Time:
		// postgres 只保存到微秒
		return val.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
