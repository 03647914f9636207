package logic

import (
	"context"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"github.com/blues/catalyst/internal/workflow"
	"gorm.io/gorm"
)

// ReviewLogic 任务审核业务逻辑
type ReviewLogic struct {
	db       *gorm.DB
	activity *ActivityLogic
	now      func() time.Time
}

// NewReviewLogic 创建任务审核业务逻辑
func NewReviewLogic(db *gorm.DB, activity *ActivityLogic) *ReviewLogic {
	return &ReviewLogic{
		db:       db,
		activity: activity,
		now:      time.Now,
	}
}

// WithClock 替换时钟
func (r *ReviewLogic) WithClock(now func() time.Time) *ReviewLogic {
	r.now = now
	return r
}

// ReviewInput 审核参数
type ReviewInput struct {
	ReviewStatus  model.ReviewStatus
	ReviewComment string
	HasBugs       bool
}

// ReviewTask 审核任务，按结论推进任务状态并追加审核活动
func (r *ReviewLogic) ReviewTask(ctx context.Context, actor policy.Actor, taskId int64, input ReviewInput) (*model.TaskModel, error) {
	if err := policy.Authorize(actor, policy.ReviewTask, policy.NoOwner); err != nil {
		return nil, err
	}
	decision, err := workflow.NewDecision(input.ReviewStatus)
	if err != nil {
		return nil, err
	}

	var task *model.TaskModel
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = findTask(tx, taskId)
		if err != nil {
			return err
		}

		transition, err := workflow.Review(task.Status, task.ReviewStatus, decision)
		if err != nil {
			return err
		}

		reviewedAt := r.now()
		result := tx.Model(task).
			Where("status = ? AND review_status = ?", transition.FromStatus, transition.FromReview).
			Updates(map[string]interface{}{
				"status":         transition.ToStatus,
				"review_status":  transition.ToReview,
				"review_comment": input.ReviewComment,
				"reviewed_by_id": actor.Id,
				"reviewed_at":    reviewedAt,
				"has_bugs":       input.HasBugs,
			})
		if result.Error != nil {
			return apperror.Internal("failed to review task", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperror.Conflict("task was reviewed concurrently")
		}

		_, err = r.activity.RecordChangeWithMetadata(tx, task.Id, actor.Id, "reviewStatus",
			transition.FromReview, transition.ToReview, map[string]interface{}{
				"comment":    input.ReviewComment,
				"hasBugs":    input.HasBugs,
				"fromStatus": transition.FromStatus,
				"toStatus":   transition.ToStatus,
			})
		if err != nil {
			return err
		}

		task, err = findTask(tx, taskId)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User %d reviewed task %d: %s, status now %s", actor.Id, task.Id, task.ReviewStatus, task.Status)
	return task, nil
}

// GetTasksForReview 获取待审核任务，projectId 为空时返回全部项目
func (r *ReviewLogic) GetTasksForReview(ctx context.Context, projectId *int64) ([]model.TaskModel, error) {
	query := r.db.WithContext(ctx).
		Preload("Assignee").
		Where("status = ? AND review_status = ?", model.TaskStatusInReview, model.ReviewStatusPending)
	if projectId != nil {
		query = query.Where("project_id = ?", *projectId)
	}

	var tasks []model.TaskModel
	if err := query.Order("updated_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, apperror.Internal("failed to list tasks for review", err)
	}
	return tasks, nil
}
