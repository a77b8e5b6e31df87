package handlers

import (
	"net/http"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientOrderHandler обрабатывает заказы клиентов у ремесленников.
type ClientOrderHandler struct {
	orders services.OrderService
	logger *zap.Logger
}

func NewClientOrderHandler(orders services.OrderService, log *zap.Logger) *ClientOrderHandler {
	return &ClientOrderHandler{orders: orders, logger: logger.OrNop(log)}
}

// Create обрабатывает POST /api/client-orders.
func (h *ClientOrderHandler) Create(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateClientOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orders.CreateClientOrder(c.Request().Context(), p, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusCreated, order.ToResponse())
}

// List обрабатывает GET /api/client-orders.
func (h *ClientOrderHandler) List(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	filter, err := parseOrderFilter(c)
	if err != nil {
		return err
	}

	orders, total, err := h.orders.ListClientOrders(c.Request().Context(), p, filter, page)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, models.NewPageResponse(models.ClientOrdersToResponse(orders), total, page))
}

// Get обрабатывает GET /api/client-orders/:id.
func (h *ClientOrderHandler) Get(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.GetClientOrder(c.Request().Context(), p, id)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, order.ToResponse())
}

// Update обрабатывает PUT /api/client-orders/:id. Статус меняется только через /status.
func (h *ClientOrderHandler) Update(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateClientOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Status.Valid {
		return echo.NewHTTPError(http.StatusBadRequest, "status cannot be changed here, use the status endpoint")
	}

	order, err := h.orders.UpdateClientOrder(c.Request().Context(), p, id, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, order.ToResponse())
}

// ChangeStatus обрабатывает PATCH /api/client-orders/:id/status.
func (h *ClientOrderHandler) ChangeStatus(c echo.Context) error {
	return changeStatus(c, h.orders, h.logger, models.OrderTypeClient)
}

// Delete обрабатывает DELETE /api/client-orders/:id.
func (h *ClientOrderHandler) Delete(c echo.Context) error {
	return deleteOrder(c, h.orders, h.logger, models.OrderTypeClient)
}

// Timeline обрабатывает GET /api/client-orders/:id/timeline.
func (h *ClientOrderHandler) Timeline(c echo.Context) error {
	return timeline(c, h.orders, h.logger, models.OrderTypeClient)
}

// changeStatus, deleteOrder и timeline общие для обоих видов заказов.
func changeStatus(c echo.Context, orders services.OrderService, log *zap.Logger, orderType models.OrderType) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req ChangeStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := orders.ChangeStatus(c.Request().Context(), p, orderType, id, models.OrderStatus(req.Status), req.Comment.Ptr())
	if err != nil {
		return respondError(log, c, err)
	}

	switch o := order.(type) {
	case *models.ClientOrder:
		return c.JSON(http.StatusOK, o.ToResponse())
	case *models.ArtisanOrder:
		return c.JSON(http.StatusOK, o.ToResponse())
	}
	return c.NoContent(http.StatusOK)
}

func deleteOrder(c echo.Context, orders services.OrderService, log *zap.Logger, orderType models.OrderType) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := orders.DeleteOrder(c.Request().Context(), p, orderType, id); err != nil {
		return respondError(log, c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func timeline(c echo.Context, orders services.OrderService, log *zap.Logger, orderType models.OrderType) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	entries, err := orders.GetStatusTimeline(c.Request().Context(), p, orderType, id)
	if err != nil {
		return respondError(log, c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id":   id,
		"order_type": orderType,
		"timeline":   entries,
	})
}
