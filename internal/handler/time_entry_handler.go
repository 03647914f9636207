package handler

import (
	"net/http"

	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/middleware"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TimeEntryHandler struct {
	timerLogic     *logic.TimerLogic
	timeEntryLogic *logic.TimeEntryLogic
}

func NewTimeEntryHandler(db *gorm.DB) *TimeEntryHandler {
	return &TimeEntryHandler{
		timerLogic:     logic.NewTimerLogic(db, logic.NewActivityLogic(db)),
		timeEntryLogic: logic.NewTimeEntryLogic(db),
	}
}

// StartTimer 开始计时
func (h *TimeEntryHandler) StartTimer(c *gin.Context) {
	var req StartTimerRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	entry, err := h.timerLogic.StartTimer(c.Request.Context(), actor, req.TaskId, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "timer started", entry)
}

// StopTimer 停止计时
func (h *TimeEntryHandler) StopTimer(c *gin.Context) {
	var req StopTimerRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	entry, err := h.timerLogic.StopTimer(c.Request.Context(), actor, req.TimeEntryId, req.Notes)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "timer stopped", entry)
}

// GetActiveTimer 获取运行中的计时器，没有时 data 为 null
func (h *TimeEntryHandler) GetActiveTimer(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	active, err := h.timerLogic.GetActiveTimer(c.Request.Context(), actor.Id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", active)
}

// CreateManualEntry 手动补录
func (h *TimeEntryHandler) CreateManualEntry(c *gin.Context) {
	var req ManualEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	entry, err := h.timerLogic.CreateManualEntry(c.Request.Context(), actor, logic.ManualEntryInput{
		TaskId:     req.TaskId,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Notes:      req.Notes,
		IsBillable: req.IsBillable,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "time entry created", entry)
}

// GetTimeEntries 分页获取计时记录
func (h *TimeEntryHandler) GetTimeEntries(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	filter := logic.TimeEntryFilter{}
	var err error
	if filter.UserId, err = queryInt64(c, "userId"); err != nil {
		HandleError(c, err)
		return
	}
	if filter.TaskId, err = queryInt64(c, "taskId"); err != nil {
		HandleError(c, err)
		return
	}
	if filter.From, err = queryTime(c, "from"); err != nil {
		HandleError(c, err)
		return
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		HandleError(c, err)
		return
	}
	filter.Page, filter.PageSize = queryPage(c)

	entries, total, err := h.timeEntryLogic.ListTimeEntries(c.Request.Context(), actor, filter)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", ListResponse{
		Items:      entries,
		Pagination: newPagination(filter.Page, filter.PageSize, total),
	})
}

// GetTimeEntry 获取单条计时记录
func (h *TimeEntryHandler) GetTimeEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	entry, err := h.timeEntryLogic.GetTimeEntry(c.Request.Context(), actor, id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", entry)
}

// UpdateTimeEntry 修改计时记录
func (h *TimeEntryHandler) UpdateTimeEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateTimeEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	entry, err := h.timeEntryLogic.UpdateTimeEntry(c.Request.Context(), actor, id, logic.TimeEntryUpdate{
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Notes:      req.Notes,
		IsBillable: req.IsBillable,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "time entry updated", entry)
}

// DeleteTimeEntry 删除计时记录
func (h *TimeEntryHandler) DeleteTimeEntry(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	if err := h.timeEntryLogic.DeleteTimeEntry(c.Request.Context(), actor, id); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "time entry deleted", nil)
}
