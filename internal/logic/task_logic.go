package logic

import (
	"context"
	"errors"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"github.com/blues/catalyst/internal/workflow"
	"gorm.io/gorm"
)

// TaskLogic 任务业务逻辑
type TaskLogic struct {
	db       *gorm.DB
	activity *ActivityLogic
}

// NewTaskLogic 创建任务业务逻辑
func NewTaskLogic(db *gorm.DB, activity *ActivityLogic) *TaskLogic {
	return &TaskLogic{db: db, activity: activity}
}

// CreateTaskInput 创建任务参数
type CreateTaskInput struct {
	ProjectId      int64
	MilestoneId    *int64
	AssigneeId     *int64
	Title          string
	Description    string
	Priority       model.TaskPriority
	EstimatedHours *float64
	DueDate        *time.Time
}

// TaskUpdate 可修改字段，nil 表示不修改
type TaskUpdate struct {
	Title          *string
	Description    *string
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	AssigneeId     *int64
	MilestoneId    *int64
	EstimatedHours *float64
	DueDate        *time.Time
}

// TaskFilter 列表查询条件
type TaskFilter struct {
	ProjectId  *int64
	AssigneeId *int64
	Status     *model.TaskStatus
	Page       int
	PageSize   int
}

// fieldChange 一次字段变化
type fieldChange struct {
	field    string
	column   string
	oldValue interface{}
	newValue interface{}
}

// CreateTask 创建任务
func (t *TaskLogic) CreateTask(ctx context.Context, actor policy.Actor, input CreateTaskInput) (*model.TaskModel, error) {
	if err := policy.Authorize(actor, policy.CreateTask, policy.NoOwner); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, apperror.ValidationField("title", "title is required")
	}
	if input.Priority == "" {
		input.Priority = model.TaskPriorityMedium
	}

	task := &model.TaskModel{
		ProjectId:      input.ProjectId,
		MilestoneId:    input.MilestoneId,
		AssigneeId:     input.AssigneeId,
		CreatedById:    actor.Id,
		Title:          input.Title,
		Description:    input.Description,
		Status:         model.TaskStatusTodo,
		Priority:       input.Priority,
		ReviewStatus:   model.ReviewStatusPending,
		EstimatedHours: input.EstimatedHours,
		DueDate:        input.DueDate,
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project model.ProjectModel
		if err := tx.Take(&project, input.ProjectId).Error; err != nil {
			return apperror.FromStore(err, "project not found")
		}
		if input.MilestoneId != nil {
			if err := checkMilestone(tx, *input.MilestoneId, project.Id); err != nil {
				return err
			}
		}
		if input.AssigneeId != nil {
			if err := checkAssignee(tx, *input.AssigneeId); err != nil {
				return err
			}
		}

		if err := tx.Create(task).Error; err != nil {
			return apperror.Internal("failed to create task", err)
		}

		_, err := t.activity.RecordEvent(tx, task.Id, actor.Id, model.ActivityCreated, map[string]interface{}{
			"title": task.Title,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d created task %d in project %d", actor.Id, task.Id, task.ProjectId)
	return task, nil
}

// GetTask 获取任务详情
func (t *TaskLogic) GetTask(ctx context.Context, id int64) (*model.TaskModel, error) {
	var task model.TaskModel
	if err := t.db.WithContext(ctx).
		Preload("Assignee").
		Preload("Milestone").
		Take(&task, id).Error; err != nil {
		return nil, apperror.FromStore(err, "task not found")
	}
	return &task, nil
}

// ListTasks 分页获取任务列表
func (t *TaskLogic) ListTasks(ctx context.Context, filter TaskFilter) ([]model.TaskModel, int64, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	query := t.db.WithContext(ctx).Model(&model.TaskModel{})
	if filter.ProjectId != nil {
		query = query.Where("project_id = ?", *filter.ProjectId)
	}
	if filter.AssigneeId != nil {
		query = query.Where("assignee_id = ?", *filter.AssigneeId)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperror.Internal("failed to count tasks", err)
	}

	var tasks []model.TaskModel
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error; err != nil {
		return nil, 0, apperror.Internal("failed to list tasks", err)
	}
	return tasks, total, nil
}

// UpdateTask 修改任务，每个变化的字段追加一条活动记录
func (t *TaskLogic) UpdateTask(ctx context.Context, actor policy.Actor, id int64, input TaskUpdate) (*model.TaskModel, error) {
	var task *model.TaskModel

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = findTask(tx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.UpdateTask, policy.OwnedByPtr(task.AssigneeId)); err != nil {
			return err
		}

		changes, err := t.diffTask(tx, actor, task, input)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		updates := make(map[string]interface{}, len(changes))
		for _, c := range changes {
			updates[c.column] = c.newValue
		}
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return apperror.Internal("failed to update task", err)
		}

		for _, c := range changes {
			if _, err := t.activity.RecordChange(tx, task.Id, actor.Id, c.field, c.oldValue, c.newValue); err != nil {
				return err
			}
		}

		task, err = findTask(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// diffTask 逐字段比较，返回实际变化的字段
func (t *TaskLogic) diffTask(tx *gorm.DB, actor policy.Actor, task *model.TaskModel, input TaskUpdate) ([]fieldChange, error) {
	var changes []fieldChange

	if input.Title != nil && *input.Title != task.Title {
		if *input.Title == "" {
			return nil, apperror.ValidationField("title", "title cannot be empty")
		}
		changes = append(changes, fieldChange{"title", "title", task.Title, *input.Title})
	}
	if input.Description != nil && *input.Description != task.Description {
		changes = append(changes, fieldChange{"description", "description", task.Description, *input.Description})
	}
	if input.Priority != nil && *input.Priority != task.Priority {
		changes = append(changes, fieldChange{"priority", "priority", task.Priority, *input.Priority})
	}
	if input.EstimatedHours != nil && formatValue(input.EstimatedHours) != formatValue(task.EstimatedHours) {
		changes = append(changes, fieldChange{"estimatedHours", "estimated_hours", task.EstimatedHours, *input.EstimatedHours})
	}
	if input.DueDate != nil && formatValue(input.DueDate) != formatValue(task.DueDate) {
		changes = append(changes, fieldChange{"dueDate", "due_date", task.DueDate, *input.DueDate})
	}
	if input.MilestoneId != nil && formatValue(input.MilestoneId) != formatValue(task.MilestoneId) {
		if err := checkMilestone(tx, *input.MilestoneId, task.ProjectId); err != nil {
			return nil, err
		}
		changes = append(changes, fieldChange{"milestoneId", "milestone_id", task.MilestoneId, *input.MilestoneId})
	}
	if input.AssigneeId != nil && formatValue(input.AssigneeId) != formatValue(task.AssigneeId) {
		if err := policy.Authorize(actor, policy.AssignTask, policy.NoOwner); err != nil {
			return nil, err
		}
		if err := checkAssignee(tx, *input.AssigneeId); err != nil {
			return nil, err
		}
		changes = append(changes, fieldChange{"assigneeId", "assignee_id", task.AssigneeId, *input.AssigneeId})
	}
	if input.Status != nil && *input.Status != task.Status {
		if !input.Status.Valid() {
			return nil, apperror.ValidationField("status", "unknown task status")
		}
		if !policy.IsAdminTier(actor.Role) {
			if err := workflow.CheckManualStatus(task.Status, task.ReviewStatus, *input.Status); err != nil {
				return nil, err
			}
		}
		changes = append(changes, fieldChange{"status", "status", task.Status, *input.Status})

		// 重新提交审核，开启新一轮
		if workflow.IsResubmission(task.Status, *input.Status) && task.ReviewStatus != workflow.Resubmit() {
			changes = append(changes, fieldChange{"reviewStatus", "review_status", task.ReviewStatus, workflow.Resubmit()})
		}
	}

	return changes, nil
}

// DeleteTask 删除任务（软删除，活动记录保留）
func (t *TaskLogic) DeleteTask(ctx context.Context, actor policy.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.DeleteTask, policy.NoOwner); err != nil {
		return err
	}

	db := t.db.WithContext(ctx)
	task, err := findTask(db, id)
	if err != nil {
		return err
	}
	if err := db.Delete(task).Error; err != nil {
		return apperror.Internal("failed to delete task", err)
	}

	logger.Info("User %d deleted task %d", actor.Id, id)
	return nil
}

// checkMilestone 里程碑必须存在且属于同一项目
func checkMilestone(tx *gorm.DB, milestoneId, projectId int64) error {
	var milestone model.MilestoneModel
	if err := tx.Take(&milestone, milestoneId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ValidationField("milestoneId", "milestone not found")
		}
		return apperror.Internal("failed to load milestone", err)
	}
	if milestone.ProjectId != projectId {
		return apperror.ValidationField("milestoneId", "milestone belongs to another project")
	}
	return nil
}

// checkAssignee 被分配人必须存在且处于启用状态
func checkAssignee(tx *gorm.DB, userId int64) error {
	var user model.UserModel
	if err := tx.Take(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ValidationField("assigneeId", "assignee not found")
		}
		return apperror.Internal("failed to load assignee", err)
	}
	if !user.IsActive {
		return apperror.ValidationField("assigneeId", "assignee is inactive")
	}
	return nil
}
