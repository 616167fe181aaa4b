package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusHandler serves the read-only task status projection
type StatusHandler struct {
	tasks TaskService
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(tasks TaskService) *StatusHandler {
	return &StatusHandler{tasks: tasks}
}

// GetStatus handles GET /status/:task_id.
// Unknown and expired ids are reported with status "unknown".
func (h *StatusHandler) GetStatus(c *gin.Context) {
	st, err := h.tasks.Status(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}
