package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/agamariel/artisanmarket/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError переводит ошибку сервиса в HTTP-ответ. Всё неизвестное
// логируется и отдаётся клиенту как internal server error.
func respondError(log *zap.Logger, c echo.Context, err error) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, notify.ErrUnknownEvent),
		errors.Is(err, notify.ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, services.ErrProjectNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "project not found")
	case errors.Is(err, services.ErrRateeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "ratee not found")
	case errors.Is(err, services.ErrRatingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "rating not found")
	case errors.Is(err, services.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, storage.ErrNotificationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	case errors.Is(err, services.ErrNotAuthorizedToRate):
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to rate this user for this order")
	case errors.Is(err, services.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, "not authorized to perform this action")
	case errors.Is(err, services.ErrOrderNotFinalized):
		return echo.NewHTTPError(http.StatusForbidden, "order must be completed before it can be rated")
	case errors.Is(err, services.ErrOrderAlreadyFinalized):
		return echo.NewHTTPError(http.StatusConflict, "order is already finalized")
	case errors.Is(err, services.ErrDuplicateRating):
		return echo.NewHTTPError(http.StatusConflict, "you have already rated this user for this order")
	case errors.Is(err, services.ErrConcurrentModification):
		return echo.NewHTTPError(http.StatusConflict, "order was modified concurrently, please retry")
	}

	log.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// bindAndValidate разбирает тело запроса и проверяет его тегами validate.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
