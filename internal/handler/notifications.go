package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stagelink/internal/middleware"
	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/repository"
)

// NotificationReader lists and acknowledges a profile's notifications.
type NotificationReader interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// NotificationHandler serves the caller's in-app notifications.  Rows are
// addressed to profile ids, so the caller's account is resolved first.
type NotificationHandler struct {
	Notifications NotificationReader
	Profiles      ProfileLookup
}

func NewNotificationHandler(n NotificationReader, p ProfileLookup) *NotificationHandler {
	if n == nil || p == nil {
		panic("nil dependency passed to NewNotificationHandler")
	}
	return &NotificationHandler{Notifications: n, Profiles: p}
}

// List handles GET /v1/notifications?unread=true&limit=N.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	prof, err := h.Profiles.GetByUserID(ctx, middleware.AccountID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	unread := strings.EqualFold(c.QueryParam("unread"), "true")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	items, err := h.Notifications.ListByUser(ctx, prof.ID, unread, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if items == nil {
		items = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	prof, err := h.Profiles.GetByUserID(ctx, middleware.AccountID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	switch err := h.Notifications.MarkRead(ctx, c.Param("id"), prof.ID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
