package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"threadwatch.app/scout/internal/http/dto"
	"threadwatch.app/scout/internal/model"
	"threadwatch.app/scout/internal/queue"
)

type ActionHandler struct {
	producer queue.Producer
}

func NewActionHandler(producer queue.Producer) *ActionHandler {
	return &ActionHandler{producer: producer}
}

// Callback accepts a reviewer's button click and hands it to the daemon
// over the action stream. The click is acknowledged as soon as it is
// durable; resolution happens asynchronously.
func (h *ActionHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ActionCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid action callback", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, ok := model.ParseAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	if action == model.ActionEdit && req.EditedText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "edit requires edited_text"})
		return
	}

	err := h.producer.Enqueue(ctx, queue.ActionMessage{
		ApprovalID: req.ApprovalID,
		Action:     action,
		UserID:     req.UserID,
		EditedText: req.EditedText,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to enqueue action", "error", err, "approval_id", req.ApprovalID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue action"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ActionCallbackResponse{
		ApprovalID: req.ApprovalID,
		Action:     string(action),
		Enqueued:   true,
	})
}
