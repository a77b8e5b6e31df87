package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/artisanmarket/internal/cache"
	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/agamariel/artisanmarket/internal/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RatingService - оценки участников завершённых заказов и производный средний рейтинг.
type RatingService interface {
	CreateRating(ctx context.Context, in models.CreateRatingInput) (*models.Rating, error)
	UpdateRating(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateRatingInput) (*models.Rating, error)
	DeleteRating(ctx context.Context, actor models.Principal, id uuid.UUID) error
	RecomputeAverage(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error)
	ListRatingsForUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]*models.Rating, int, error)
	GetRatingStats(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error)
	ListRatingsForOrder(ctx context.Context, orderID uuid.UUID, orderType models.OrderType) ([]*models.Rating, error)
	GetClientOrderWithRatings(ctx context.Context, actor models.Principal, orderID uuid.UUID) (*models.ClientOrder, []*models.Rating, error)
	TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error)
}

// RatingServiceImpl реализует RatingService.
type RatingServiceImpl struct {
	users         UserStorage
	clientOrders  ClientOrderStorage
	artisanOrders ArtisanOrderStorage
	ratings       RatingStorage
	cache         RatingStatsCache
	events        EventPublisher
	logger        *zap.Logger
}

// NewRatingService создаёт сервис оценок. statsCache может быть nil.
func NewRatingService(
	users UserStorage,
	clientOrders ClientOrderStorage,
	artisanOrders ArtisanOrderStorage,
	ratings RatingStorage,
	statsCache RatingStatsCache,
	events EventPublisher,
	log *zap.Logger,
) *RatingServiceImpl {
	if statsCache == nil {
		statsCache = cache.Noop{}
	}
	return &RatingServiceImpl{
		users:         users,
		clientOrders:  clientOrders,
		artisanOrders: artisanOrders,
		ratings:       ratings,
		cache:         statsCache,
		events:        events,
		logger:        logger.OrNop(log),
	}
}

// CreateRating создаёт оценку участника завершённого заказа.
func (s *RatingServiceImpl) CreateRating(ctx context.Context, in models.CreateRatingInput) (*models.Rating, error) {
	if err := validateScore(in.Score); err != nil {
		return nil, err
	}
	lc, ok := models.LifecycleOf(in.OrderType)
	if !ok {
		return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
	}

	ratee, err := s.users.GetByID(ctx, in.RateeID)
	if err != nil {
		err = storeError("get ratee", err)
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrRateeNotFound
		}
		return nil, err
	}

	order, err := s.loadOrder(ctx, in.OrderType, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CurrentStatus() != lc.Success {
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotFinalized, order.CurrentStatus())
	}

	if !models.OccupiesPair(order, in.Rater.UserID, in.Rater.Role, ratee.ID, ratee.Role) {
		return nil, ErrNotAuthorizedToRate
	}

	// Уникальный индекс остаётся окончательной проверкой, здесь только ранний отказ.
	exists, err := s.ratings.Exists(ctx, in.Rater.UserID, ratee.ID, order.OrderID(), in.OrderType)
	if err != nil {
		return nil, storeError("check rating", err)
	}
	if exists {
		return nil, ErrDuplicateRating
	}

	rating := &models.Rating{
		ID:        uuid.New(),
		Score:     in.Score,
		Comment:   trimComment(in.Comment),
		RaterID:   in.Rater.UserID,
		RateeID:   ratee.ID,
		RaterType: in.Rater.Role,
		RateeType: ratee.Role,
		OrderID:   order.OrderID(),
		OrderType: in.OrderType,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, storeError("create rating", err)
	}

	s.refreshAverage(ctx, ratee.ID)

	publish(ctx, s.events, s.logger, []uuid.UUID{ratee.ID}, notify.EventRatingReceived, ratingPayload(rating))
	return rating, nil
}

// UpdateRating меняет оценку или комментарий. Разрешено автору оценки и администратору.
func (s *RatingServiceImpl) UpdateRating(ctx context.Context, actor models.Principal, id uuid.UUID, in models.UpdateRatingInput) (*models.Rating, error) {
	if in.Score != nil {
		if err := validateScore(*in.Score); err != nil {
			return nil, err
		}
	}

	rating, err := s.ownedRating(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if in.Score != nil {
		rating.Score = *in.Score
	}
	if in.Comment != nil {
		rating.Comment = trimComment(in.Comment)
	}

	if err := s.ratings.Update(ctx, rating); err != nil {
		return nil, storeError("update rating", err)
	}

	s.refreshAverage(ctx, rating.RateeID)

	publish(ctx, s.events, s.logger, othersThan([]uuid.UUID{rating.RateeID}, actor.UserID), notify.EventRatingUpdated, ratingPayload(rating))
	return rating, nil
}

// DeleteRating удаляет оценку. Разрешено автору оценки и администратору.
func (s *RatingServiceImpl) DeleteRating(ctx context.Context, actor models.Principal, id uuid.UUID) error {
	rating, err := s.ownedRating(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.ratings.Delete(ctx, id); err != nil {
		return storeError("delete rating", err)
	}

	s.refreshAverage(ctx, rating.RateeID)
	return nil
}

// RecomputeAverage пересчитывает средний рейтинг пользователя по всем его оценкам
// и перезаписывает его. Повторный вызов даёт тот же результат.
func (s *RatingServiceImpl) RecomputeAverage(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
	stats, err := s.computeStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateAverageRating(ctx, userID, stats.AverageRating); err != nil {
		return nil, storeError("update average rating", err)
	}
	s.cache.Invalidate(ctx, userID)

	s.logger.Debug("average rating recomputed",
		zap.String("user_id", userID.String()),
		zap.Int("total", stats.TotalRatings),
		zap.Float64("average", stats.AverageRating),
	)
	return stats, nil
}

// ListRatingsForUser возвращает страницу оценок, полученных пользователем.
func (s *RatingServiceImpl) ListRatingsForUser(ctx context.Context, userID uuid.UUID, page models.Page) ([]*models.Rating, int, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, 0, storeError("get user", err)
	}

	list, total, err := s.ratings.ListByRatee(ctx, userID, page)
	if err != nil {
		return nil, 0, storeError("list ratings", err)
	}
	return list, total, nil
}

// GetRatingStats возвращает сводку оценок пользователя, по возможности из кэша.
func (s *RatingServiceImpl) GetRatingStats(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
	cached, version, ok := s.cache.Get(ctx, userID)
	if ok {
		return cached, nil
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, storeError("get user", err)
	}

	stats, err := s.computeStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, userID, version, stats)
	return stats, nil
}

// ListRatingsForOrder возвращает оценки по заказу.
func (s *RatingServiceImpl) ListRatingsForOrder(ctx context.Context, orderID uuid.UUID, orderType models.OrderType) ([]*models.Rating, error) {
	if !orderType.Valid() {
		return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
	}
	if _, err := s.loadOrder(ctx, orderType, orderID); err != nil {
		return nil, err
	}

	list, err := s.ratings.ListByOrder(ctx, orderID, orderType)
	if err != nil {
		return nil, storeError("list order ratings", err)
	}
	return list, nil
}

// GetClientOrderWithRatings возвращает клиентский заказ вместе с его оценками.
func (s *RatingServiceImpl) GetClientOrderWithRatings(ctx context.Context, actor models.Principal, orderID uuid.UUID) (*models.ClientOrder, []*models.Rating, error) {
	order, err := s.clientOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, storeError("get client order", err)
	}
	if !models.CanAct(order, actor) {
		return nil, nil, ErrUnauthorized
	}

	list, err := s.ratings.ListByOrder(ctx, orderID, models.OrderTypeClient)
	if err != nil {
		return nil, nil, storeError("list order ratings", err)
	}
	return order, list, nil
}

// TopRated возвращает пользователей роли с наибольшим средним рейтингом.
func (s *RatingServiceImpl) TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	if !role.Valid() {
		return nil, invalid("role", "unknown role")
	}
	if limit <= 0 {
		limit = 5
	}
	users, err := s.users.TopRated(ctx, role, limit)
	if err != nil {
		return nil, storeError("top rated users", err)
	}
	return users, nil
}

// refreshAverage вызывается после фиксации изменения оценки. Ошибка не отменяет изменение,
// администратор может повторить пересчёт вручную.
func (s *RatingServiceImpl) refreshAverage(ctx context.Context, userID uuid.UUID) {
	if _, err := s.RecomputeAverage(ctx, userID); err != nil {
		s.logger.Error("failed to recompute average rating",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func (s *RatingServiceImpl) computeStats(ctx context.Context, userID uuid.UUID) (*models.RatingStats, error) {
	dist, err := s.ratings.ScoreDistribution(ctx, userID)
	if err != nil {
		return nil, storeError("score distribution", err)
	}
	return StatsFromDistribution(dist), nil
}

func (s *RatingServiceImpl) ownedRating(ctx context.Context, actor models.Principal, id uuid.UUID) (*models.Rating, error) {
	rating, err := s.ratings.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get rating", err)
	}
	if !actor.IsAdmin() && rating.RaterID != actor.UserID {
		return nil, ErrUnauthorized
	}
	return rating, nil
}

func (s *RatingServiceImpl) loadOrder(ctx context.Context, orderType models.OrderType, id uuid.UUID) (models.Order, error) {
	switch orderType {
	case models.OrderTypeClient:
		o, err := s.clientOrders.GetByID(ctx, id)
		if err != nil {
			return nil, storeError("get client order", err)
		}
		return o, nil
	case models.OrderTypeArtisan:
		o, err := s.artisanOrders.GetByID(ctx, id)
		if err != nil {
			return nil, storeError("get artisan order", err)
		}
		return o, nil
	}
	return nil, invalid("order_type", "must be CLIENT_ORDER or ARTISAN_ORDER")
}

// StatsFromDistribution строит сводку по гистограмме оценок.
// Среднее округляется до двух знаков, без оценок оно равно нулю.
func StatsFromDistribution(dist map[int]int) *models.RatingStats {
	stats := models.NewRatingStats()

	var sum, count int64
	for score, n := range dist {
		if score < models.MinScore || score > models.MaxScore || n <= 0 {
			continue
		}
		stats.Distribution[score] = n
		sum += int64(score) * int64(n)
		count += int64(n)
	}

	stats.TotalRatings = int(count)
	if count > 0 {
		stats.AverageRating, _ = decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 2).Float64()
	}
	return stats
}

func validateScore(score int) error {
	if score < models.MinScore || score > models.MaxScore {
		return invalid("score", fmt.Sprintf("must be between %d and %d", models.MinScore, models.MaxScore))
	}
	return nil
}

func ratingPayload(r *models.Rating) map[string]any {
	payload := map[string]any{
		"rating_id":  r.ID,
		"score":      r.Score,
		"rater_id":   r.RaterID,
		"rater_type": r.RaterType,
		"order_id":   r.OrderID,
		"order_type": r.OrderType,
	}
	if r.Comment != nil {
		payload["comment"] = *r.Comment
	}
	return payload
}
