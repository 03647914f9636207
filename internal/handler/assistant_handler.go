package handler

import (
	"net/http"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/assistant"
	"github.com/blues/catalyst/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	sessions *assistant.SessionStore
}

func NewAssistantHandler(sessions *assistant.SessionStore) *AssistantHandler {
	return &AssistantHandler{sessions: sessions}
}

// GetHistory 获取当前用户的对话历史
func (h *AssistantHandler) GetHistory(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	SuccessResponse(c, http.StatusOK, "", h.sessions.History(actor.Id))
}

// AppendMessage 追加一条对话消息
func (h *AssistantHandler) AppendMessage(c *gin.Context) {
	var req AppendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	history, err := h.sessions.Append(actor.Id, req.Role, req.Content)
	if err != nil {
		HandleError(c, apperror.ValidationField("content", err.Error()))
		return
	}
	SuccessResponse(c, http.StatusCreated, "", history)
}

// ClearHistory 清空当前用户的对话历史
func (h *AssistantHandler) ClearHistory(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)
	h.sessions.Clear(actor.Id)
	SuccessResponse(c, http.StatusOK, "history cleared", nil)
}
