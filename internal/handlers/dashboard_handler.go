package handlers

import (
	"context"
	"net/http"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Dashboards interface {
	ClientDashboard(ctx context.Context, actor models.Principal) (*models.ClientDashboard, error)
	ArtisanDashboard(ctx context.Context, actor models.Principal) (*models.ArtisanDashboard, error)
}

// DashboardHandler отдаёт сводки личных кабинетов.
type DashboardHandler struct {
	dashboards Dashboards
	logger     *zap.Logger
}

func NewDashboardHandler(dashboards Dashboards, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, logger: logger.OrNop(log)}
}

// Client обрабатывает GET /api/dashboard/client.
func (h *DashboardHandler) Client(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	d, err := h.dashboards.ClientDashboard(c.Request().Context(), p)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, d.ToResponse())
}

// Artisan обрабатывает GET /api/dashboard/artisan.
func (h *DashboardHandler) Artisan(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	d, err := h.dashboards.ArtisanDashboard(c.Request().Context(), p)
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusOK, d.ToResponse())
}
