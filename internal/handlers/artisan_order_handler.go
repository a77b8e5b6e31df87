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

// ArtisanOrderHandler обрабатывает заказы материалов у поставщиков.
type ArtisanOrderHandler struct {
	orders services.OrderService
	logger *zap.Logger
}

func NewArtisanOrderHandler(orders services.OrderService, log *zap.Logger) *ArtisanOrderHandler {
	return &ArtisanOrderHandler{orders: orders, logger: logger.OrNop(log)}
}

// Create обрабатывает POST /api/artisan-orders.
func (h *ArtisanOrderHandler) Create(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req CreateArtisanOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orders.CreateArtisanOrder(c.Request().Context(), p, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusCreated, order.ToResponse())
}

// List обрабатывает GET /api/artisan-orders.
func (h *ArtisanOrderHandler) List(c echo.Context) error {
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

	orders, total, err := h.orders.ListArtisanOrders(c.Request().Context(), p, filter, page)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, models.NewPageResponse(models.ArtisanOrdersToResponse(orders), total, page))
}

// Get обрабатывает GET /api/artisan-orders/:id.
func (h *ArtisanOrderHandler) Get(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.GetArtisanOrder(c.Request().Context(), p, id)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, order.ToResponse())
}

// Update обрабатывает PUT /api/artisan-orders/:id.
func (h *ArtisanOrderHandler) Update(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateArtisanOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Status.Valid {
		return echo.NewHTTPError(http.StatusBadRequest, "status cannot be changed here, use the status endpoint")
	}

	order, err := h.orders.UpdateArtisanOrder(c.Request().Context(), p, id, req.toInput())
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, order.ToResponse())
}

func (h *ArtisanOrderHandler) ChangeStatus(c echo.Context) error {
	return changeStatus(c, h.orders, h.logger, models.OrderTypeArtisan)
}

func (h *ArtisanOrderHandler) Delete(c echo.Context) error {
	return deleteOrder(c, h.orders, h.logger, models.OrderTypeArtisan)
}

func (h *ArtisanOrderHandler) Timeline(c echo.Context) error {
	return timeline(c, h.orders, h.logger, models.OrderTypeArtisan)
}
