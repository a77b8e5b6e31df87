package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Notifications - операции диспетчера уведомлений, нужные HTTP-слою.
type Notifications interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool, page models.Page) ([]*models.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	PublishToRole(ctx context.Context, role models.Role, event notify.Event, payload any) error
	Broadcast(ctx context.Context, event notify.Event, payload any) error
}

// NotificationHandler обрабатывает ленту уведомлений и рассылки администратора.
type NotificationHandler struct {
	notifications Notifications
	logger        *zap.Logger
}

func NewNotificationHandler(notifications Notifications, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger.OrNop(log)}
}

// List обрабатывает GET /api/notifications?unread=true.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	unreadOnly := false
	if raw := c.QueryParam("unread"); raw != "" {
		if unreadOnly, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid unread flag")
		}
	}

	list, total, err := h.notifications.ListNotifications(c.Request().Context(), userID, unreadOnly, page)
	if err != nil {
		return respondError(h.logger, c, err)
	}

	items := make([]models.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, n.ToResponse())
	}
	return c.JSON(http.StatusOK, models.NewPageResponse(items, total, page))
}

// MarkRead обрабатывает PATCH /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), userID, id); err != nil {
		return respondError(h.logger, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead обрабатывает PATCH /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	n, err := h.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}

// Publish обрабатывает POST /api/admin/notifications: рассылка роли или всем.
func (h *NotificationHandler) Publish(c echo.Context) error {
	var req AdminNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var payload any = map[string]any{}
	if len(req.Payload) > 0 {
		payload = json.RawMessage(req.Payload)
	}

	ctx := c.Request().Context()
	event := notify.Event(req.Event)
	if req.Role.Valid {
		err := h.notifications.PublishToRole(ctx, models.Role(req.Role.String), event, payload)
		if err != nil {
			return respondError(h.logger, c, err)
		}
	} else if err := h.notifications.Broadcast(ctx, event, payload); err != nil {
		return respondError(h.logger, c, err)
	}
	return c.NoContent(http.StatusAccepted)
}
