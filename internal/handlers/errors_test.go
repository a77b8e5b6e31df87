package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/services"
	"github.com/agamariel/artisanmarket/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Field: "score", Message: "Score must be between 1 and 5"}, http.StatusBadRequest},
		{services.ErrInvalidStatus, http.StatusBadRequest},
		{fmt.Errorf("publish: %w", notify.ErrUnknownEvent), http.StatusBadRequest},
		{notify.ErrInvalidRole, http.StatusBadRequest},
		{fmt.Errorf("get: %w", services.ErrOrderNotFound), http.StatusNotFound},
		{fmt.Errorf("lock project: %w", services.ErrProjectNotFound), http.StatusNotFound},
		{services.ErrRateeNotFound, http.StatusNotFound},
		{services.ErrRatingNotFound, http.StatusNotFound},
		{services.ErrUserNotFound, http.StatusNotFound},
		{storage.ErrNotificationNotFound, http.StatusNotFound},
		{services.ErrUnauthorized, http.StatusForbidden},
		{services.ErrNotAuthorizedToRate, http.StatusForbidden},
		{services.ErrOrderNotFinalized, http.StatusForbidden},
		{services.ErrOrderAlreadyFinalized, http.StatusConflict},
		{services.ErrDuplicateRating, http.StatusConflict},
		{services.ErrConcurrentModification, http.StatusConflict},
		{fmt.Errorf("insert: %w: %w", services.ErrStoreFailure, errors.New("conn reset")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			c, _ := newContext(t, request{method: http.MethodGet})
			err := respondError(zap.NewNop(), c, tt.err)

			var he *echo.HTTPError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.want, he.Code)
		})
	}
}

func TestRespondError_HidesAndLogsInternalErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	c, _ := newContext(t, request{method: http.MethodPost})

	err := respondError(zap.New(core), c, fmt.Errorf("insert payment: %w: %w", services.ErrStoreFailure, errors.New("password=secret")))

	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "internal server error", he.Message)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "password=secret")
}
