package handler

import (
	"net/http"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/middleware"
	"github.com/blues/catalyst/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	taskLogic     *logic.TaskLogic
	reviewLogic   *logic.ReviewLogic
	activityLogic *logic.ActivityLogic
}

func NewTaskHandler(db *gorm.DB) *TaskHandler {
	activity := logic.NewActivityLogic(db)
	return &TaskHandler{
		taskLogic:     logic.NewTaskLogic(db, activity),
		reviewLogic:   logic.NewReviewLogic(db, activity),
		activityLogic: activity,
	}
}

// CreateTask 创建任务
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	task, err := h.taskLogic.CreateTask(c.Request.Context(), actor, logic.CreateTaskInput{
		ProjectId:      req.ProjectId,
		MilestoneId:    req.MilestoneId,
		AssigneeId:     req.AssigneeId,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "task created", task)
}

// GetTasks 分页获取任务列表
func (h *TaskHandler) GetTasks(c *gin.Context) {
	filter := logic.TaskFilter{}
	var err error
	if filter.ProjectId, err = queryInt64(c, "projectId"); err != nil {
		HandleError(c, err)
		return
	}
	if filter.AssigneeId, err = queryInt64(c, "assigneeId"); err != nil {
		HandleError(c, err)
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := model.TaskStatus(raw)
		if !status.Valid() {
			HandleError(c, apperror.ValidationField("status", "unknown task status"))
			return
		}
		filter.Status = &status
	}
	filter.Page, filter.PageSize = queryPage(c)

	tasks, total, err := h.taskLogic.ListTasks(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", ListResponse{
		Items:      tasks,
		Pagination: newPagination(filter.Page, filter.PageSize, total),
	})
}

// GetTask 获取任务详情
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskLogic.GetTask(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", task)
}

// UpdateTask 修改任务
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	task, err := h.taskLogic.UpdateTask(c.Request.Context(), actor, id, logic.TaskUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		AssigneeId:     req.AssigneeId,
		MilestoneId:    req.MilestoneId,
		EstimatedHours: req.EstimatedHours,
		DueDate:        req.DueDate,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "task updated", task)
}

// DeleteTask 删除任务
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	if err := h.taskLogic.DeleteTask(c.Request.Context(), actor, id); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "task deleted", nil)
}

// ReviewTask 审核任务
func (h *TaskHandler) ReviewTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ReviewTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	task, err := h.reviewLogic.ReviewTask(c.Request.Context(), actor, id, logic.ReviewInput{
		ReviewStatus:  req.ReviewStatus,
		ReviewComment: req.ReviewComment,
		HasBugs:       req.HasBugs,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "task reviewed", task)
}

// GetTasksForReview 获取待审核任务
func (h *TaskHandler) GetTasksForReview(c *gin.Context) {
	projectId, err := queryInt64(c, "projectId")
	if err != nil {
		HandleError(c, err)
		return
	}

	tasks, err := h.reviewLogic.GetTasksForReview(c.Request.Context(), projectId)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", tasks)
}

// GetTaskActivities 获取任务活动记录
func (h *TaskHandler) GetTaskActivities(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	activities, err := h.activityLogic.ListTaskActivities(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", activities)
}
