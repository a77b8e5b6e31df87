package realtime

import (
	"sync"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub - реестр подключений: пользователь -> соединения и роль -> соединения.
// Отправка не блокируется: если буфер клиента полон, сообщение ему не доставляется.
type Hub struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]map[*Client]struct{}
	roles  map[models.Role]map[*Client]struct{}
	closed bool
	logger *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]map[*Client]struct{}),
		roles:  make(map[models.Role]map[*Client]struct{}),
		logger: logger.OrNop(log),
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}

	if h.roles[c.role] == nil {
		h.roles[c.role] = make(map[*Client]struct{})
	}
	h.roles[c.role][c] = struct{}{}

	h.logger.Debug("realtime client registered",
		zap.String("user_id", c.userID.String()),
		zap.String("role", string(c.role)),
		zap.Int("connections", len(h.users[c.userID])),
	)
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}

	delete(conns, c)
	if len(conns) == 0 {
		delete(h.users, c.userID)
	}
	if byRole := h.roles[c.role]; byRole != nil {
		delete(byRole, c)
		if len(byRole) == 0 {
			delete(h.roles, c.role)
		}
	}
	close(c.send)

	h.logger.Debug("realtime client unregistered", zap.String("user_id", c.userID.String()))
}

// PushToUser отправляет сообщение во все соединения пользователя.
// Возвращает true, если сообщение принято хотя бы одним соединением.
func (h *Hub) PushToUser(userID uuid.UUID, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.users[userID] {
		if h.enqueue(c, msg) {
			delivered = true
		}
	}
	return delivered
}

// PushToRole отправляет сообщение всем подключённым пользователям роли.
func (h *Hub) PushToRole(role models.Role, msg []byte) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.fanOut(h.roles[role], msg)
}

// Broadcast отправляет сообщение всем подключённым пользователям.
func (h *Hub) Broadcast(msg []byte) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var reached []uuid.UUID
	for _, conns := range h.users {
		reached = append(reached, h.fanOut(conns, msg)...)
	}
	return reached
}

// OnlineUsers возвращает пользователей, у которых есть хотя бы одно соединение.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	return ids
}

// Close закрывает все соединения и перестаёт принимать новые.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, conns := range h.users {
		for c := range conns {
			close(c.send)
		}
	}
	h.users = make(map[uuid.UUID]map[*Client]struct{})
	h.roles = make(map[models.Role]map[*Client]struct{})
}

// fanOut вызывается под блокировкой чтения.
func (h *Hub) fanOut(conns map[*Client]struct{}, msg []byte) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var reached []uuid.UUID
	for c := range conns {
		if !h.enqueue(c, msg) {
			continue
		}
		if _, ok := seen[c.userID]; ok {
			continue
		}
		seen[c.userID] = struct{}{}
		reached = append(reached, c.userID)
	}
	return reached
}

// enqueue вызывается под блокировкой чтения, поэтому канал не может быть закрыт во время отправки.
func (h *Hub) enqueue(c *Client, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.logger.Warn("realtime client buffer full, message dropped", zap.String("user_id", c.userID.String()))
		return false
	}
}
