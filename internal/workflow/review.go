// Package workflow 任务审核状态机
package workflow

import (
	"fmt"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/model"
)

// Decision 审核结论，只能通过 NewDecision 构造
type Decision struct {
	status model.ReviewStatus
}

// ReviewStatus 结论对应的审核状态
func (d Decision) ReviewStatus() model.ReviewStatus {
	return d.status
}

// NewDecision 只接受 APPROVED / REJECTED / NEEDS_CHANGES
func NewDecision(status model.ReviewStatus) (Decision, error) {
	if _, ok := transitions[model.ReviewStatusPending][status]; !ok {
		return Decision{}, apperror.ValidationField("reviewStatus",
			fmt.Sprintf("reviewStatus must be one of APPROVED, REJECTED, NEEDS_CHANGES, got %q", status))
	}
	return Decision{status: status}, nil
}

// transitions 审核状态转换表: 当前审核状态 -> 结论 -> 任务状态
var transitions = map[model.ReviewStatus]map[model.ReviewStatus]model.TaskStatus{
	model.ReviewStatusPending: {
		model.ReviewStatusApproved:     model.TaskStatusCompleted,
		model.ReviewStatusRejected:     model.TaskStatusInProgress,
		model.ReviewStatusNeedsChanges: model.TaskStatusInProgress,
	},
}

// Transition 一次审核带来的状态变化
type Transition struct {
	FromReview model.ReviewStatus
	ToReview   model.ReviewStatus
	FromStatus model.TaskStatus
	ToStatus   model.TaskStatus
}

// Review 计算审核结论对任务的影响。任务必须处于 IN_REVIEW 且审核状态为 PENDING。
func Review(taskStatus model.TaskStatus, reviewStatus model.ReviewStatus, decision Decision) (Transition, error) {
	if decision.status == "" {
		return Transition{}, apperror.Validation("review decision is required")
	}
	if taskStatus != model.TaskStatusInReview {
		return Transition{}, apperror.Conflict(fmt.Sprintf("task is %s, only IN_REVIEW tasks can be reviewed", taskStatus))
	}
	next, ok := transitions[reviewStatus][decision.status]
	if !ok {
		return Transition{}, apperror.Conflict(fmt.Sprintf("review round already closed with %s", reviewStatus))
	}
	return Transition{
		FromReview: reviewStatus,
		ToReview:   decision.status,
		FromStatus: taskStatus,
		ToStatus:   next,
	}, nil
}

// IsResubmission 任务状态切换到 IN_REVIEW 时开启新一轮审核
func IsResubmission(from, to model.TaskStatus) bool {
	return to == model.TaskStatusInReview && from != model.TaskStatusInReview
}

// Resubmit 新一轮审核的初始状态
func Resubmit() model.ReviewStatus {
	return model.ReviewStatusPending
}

// CheckManualStatus 非管理层级直接修改任务状态时的限制。
// COMPLETED 只能由审核通过产生，待审核的任务在本轮结束前不能移出 IN_REVIEW。
func CheckManualStatus(from model.TaskStatus, review model.ReviewStatus, to model.TaskStatus) error {
	if to == model.TaskStatusCompleted {
		return apperror.Authorization("tasks can only be completed by an approved review")
	}
	if from == model.TaskStatusInReview && review == model.ReviewStatusPending {
		return apperror.Conflict("task is awaiting review")
	}
	return nil
}
