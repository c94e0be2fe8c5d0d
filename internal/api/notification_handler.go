package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/core"
)

// NotificationHandler serves the in-app notification inbox.
type NotificationHandler struct {
	notificationService core.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(ns core.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// ListNotifications handles GET /notifications?limit=&unread=true.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c, 0)
	if !ok {
		return
	}
	list, err := h.notificationService.ListForUser(c.Request.Context(), uid, limit, c.Query("unread") == "true")
	if err != nil {
		internalError(c, "Failed to list notifications", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkRead handles POST /notifications/:notificationId/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	err := h.notificationService.MarkRead(c.Request.Context(), uid, c.Param("notificationId"))
	if err != nil {
		if errors.Is(err, core.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Notification not found"})
			return
		}
		internalError(c, "Failed to update notification", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification marked as read"})
}
