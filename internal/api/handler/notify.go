package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vadymuxd/searching-the-fox/internal/service"
	"gorm.io/gorm"
)

// NotifyHandler handles digest dispatch endpoints.
type NotifyHandler struct {
	dispatcher *service.Dispatcher
}

// NewNotifyHandler creates a new notify handler.
// Parameters:
//   - dispatcher: digest dispatcher instance.
// Returns:
//   - *NotifyHandler: initialized handler.
func NewNotifyHandler(dispatcher *service.Dispatcher) *NotifyHandler {
	return &NotifyHandler{dispatcher: dispatcher}
}

// NotifyUser handles POST /api/v1/notify/users/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *NotifyHandler) NotifyUser(c *gin.Context) {
	result, err := h.dispatcher.SendToUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrMailerNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Digest dispatch failed: " + err.Error(),
			})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// NotifyAll handles POST /api/v1/notify/all.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *NotifyHandler) NotifyAll(c *gin.Context) {
	batch, err := h.dispatcher.SendToAllSubscribed(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Digest batch failed: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, batch)
}
