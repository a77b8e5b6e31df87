package handlers

import (
	"net/http"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// parsePage читает page и limit из строки запроса. Нормализация - на стороне хранилища.
func parsePage(c echo.Context) (models.Page, error) {
	var p models.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	if err != nil {
		return models.Page{}, echo.NewHTTPError(http.StatusBadRequest, "invalid pagination parameters")
	}
	return p, nil
}

// parseOrderFilter читает фильтры списка заказов. Значения проверяет сервис.
func parseOrderFilter(c echo.Context) (models.OrderFilter, error) {
	f := models.OrderFilter{
		Status:        models.OrderStatus(c.QueryParam("status")),
		PaymentStatus: models.PaymentStatus(c.QueryParam("payment_status")),
	}
	if raw := c.QueryParam("participant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return models.OrderFilter{}, echo.NewHTTPError(http.StatusBadRequest, "invalid participant_id")
		}
		f.ParticipantID = id
	}
	return f, nil
}
