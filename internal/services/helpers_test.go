package services

import (
	"context"
	"sync"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/agamariel/artisanmarket/internal/storage"
	"github.com/google/uuid"
)

type publishedEvent struct {
	Recipients []uuid.UUID
	Event      notify.Event
	Payload    any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishToUsers(ctx context.Context, userIDs []uuid.UUID, event notify.Event, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Recipients: userIDs, Event: event, Payload: payload})
	return p.err
}

func (p *fakePublisher) last() (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return publishedEvent{}, false
	}
	return p.events[len(p.events)-1], true
}

type fakeStatsCache struct {
	entries     map[uuid.UUID]*models.RatingStats
	versions    map[uuid.UUID]int64
	invalidated []uuid.UUID
	// beforeSet вызывается перед проверкой версии в Set.
	beforeSet func(userID uuid.UUID)
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{
		entries:  make(map[uuid.UUID]*models.RatingStats),
		versions: make(map[uuid.UUID]int64),
	}
}

func (c *fakeStatsCache) Get(ctx context.Context, userID uuid.UUID) (*models.RatingStats, int64, bool) {
	s, ok := c.entries[userID]
	return s, c.versions[userID], ok
}

func (c *fakeStatsCache) Set(ctx context.Context, userID uuid.UUID, version int64, stats *models.RatingStats) {
	if c.beforeSet != nil {
		c.beforeSet(userID)
	}
	if c.versions[userID] != version {
		return
	}
	c.entries[userID] = stats
}

func (c *fakeStatsCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	delete(c.entries, userID)
	c.versions[userID]++
	c.invalidated = append(c.invalidated, userID)
}

// userDirectory отдаёт пользователей по id, как MockUserStorage.GetByIDFunc.
func userDirectory(users ...*models.User) func(ctx context.Context, id uuid.UUID) (*models.User, error) {
	byID := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		u, ok := byID[id]
		if !ok {
			return nil, storage.ErrUserNotFound
		}
		return u, nil
	}
}

func newUser(role models.Role) *models.User {
	return &models.User{ID: uuid.New(), Name: string(role), Role: role}
}

func principal(u *models.User) models.Principal {
	return models.Principal{UserID: u.ID, Role: u.Role}
}
