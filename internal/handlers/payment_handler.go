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

// PaymentHandler обрабатывает оплаты клиентских заказов.
type PaymentHandler struct {
	payments services.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger.OrNop(log)}
}

// Record обрабатывает POST /api/client-orders/:id/payments.
func (h *PaymentHandler) Record(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req RecordPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.payments.RecordPayment(c.Request().Context(), p, orderID, services.RecordPaymentInput{
		Amount: req.Amount,
		Method: models.PaymentMethod(req.PaymentMethod),
		Notes:  req.Notes,
	})
	if err != nil {
		return respondError(h.logger, c, err)
	}
	return c.JSON(http.StatusCreated, res.ToResponse())
}

// List обрабатывает GET /api/client-orders/:id/payments.
func (h *PaymentHandler) List(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	orderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	payments, err := h.payments.ListPayments(c.Request().Context(), p, orderID)
	if err != nil {
		return respondError(h.logger, c, err)
	}

	resp := make([]models.PaymentResponse, 0, len(payments))
	for _, pay := range payments {
		resp = append(resp, pay.ToResponse())
	}
	return c.JSON(http.StatusOK, resp)
}
