package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	method string
	target string
	body   string
	params map[string]string
	actor  *models.Principal
}

func newContext(t *testing.T, r request) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	target := r.target
	if target == "" {
		target = "/"
	}
	req := httptest.NewRequest(r.method, target, strings.NewReader(r.body))
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if len(r.params) > 0 {
		var names, values []string
		for name, value := range r.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if r.actor != nil {
		c.Set(string(auth.UserIDKey), r.actor.UserID)
		c.Set(string(auth.UserRoleKey), r.actor.Role)
	}
	return c, rec
}

// assertStatus проверяет код ответа: успешный пишется в recorder, ошибка возвращается как *echo.HTTPError.
func assertStatus(t *testing.T, err error, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if want < 400 {
		require.NoError(t, err)
		assert.Equal(t, want, rec.Code)
		return
	}
	require.Error(t, err)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, want, he.Code)
}
