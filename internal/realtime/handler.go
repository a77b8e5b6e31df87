package realtime

import (
	"net/http"

	"github.com/agamariel/artisanmarket/internal/auth"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler открывает websocket-канал только после проверки токена.
type Handler struct {
	hub       *Hub
	jwtSecret string
}

func NewHandler(hub *Hub, jwtSecret string) *Handler {
	return &Handler{hub: hub, jwtSecret: jwtSecret}
}

// ServeWS обрабатывает GET /ws. Токен берётся из параметра token,
// иначе из заголовка Authorization или cookie.
func (h *Handler) ServeWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = auth.ExtractToken(c)
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	claims, err := auth.ValidateToken(token, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	client := newClient(h.hub, conn, claims.Principal())
	if !h.hub.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	h.hub.logger.Info("realtime client connected",
		zap.String("user_id", claims.UserID.String()),
		zap.String("role", string(claims.Role)),
	)
	return nil
}
