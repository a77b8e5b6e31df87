package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/agamariel/artisanmarket/internal/logger"
	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyPrefix        = "rating_stats:"
	versionKeyPrefix = "rating_stats_version:"
	DefaultTTL       = 10 * time.Minute
	// versionTTL заведомо больше времени расчёта одной сводки.
	versionTTL = 24 * time.Hour
)

// UnknownVersion возвращается, когда версию прочитать не удалось. Set с ней ничего не пишет.
const UnknownVersion int64 = -1

var errStaleVersion = errors.New("rating stats version changed")

// RatingStatsCache хранит сводки оценок в Redis.
// Ошибки Redis считаются промахом и только логируются.
type RatingStatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRatingStatsCache создаёт кэш поверх клиента Redis.
func NewRatingStatsCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RatingStatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RatingStatsCache{client: client, ttl: ttl, logger: logger.OrNop(log)}
}

// Key возвращает ключ сводки пользователя.
func Key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// VersionKey возвращает ключ счётчика версий сводки пользователя.
func VersionKey(userID uuid.UUID) string {
	return versionKeyPrefix + userID.String()
}

// Get читает сводку и её версию одним запросом.
func (c *RatingStatsCache) Get(ctx context.Context, userID uuid.UUID) (*models.RatingStats, int64, bool) {
	vals, err := c.client.MGet(ctx, Key(userID), VersionKey(userID)).Result()
	if err != nil {
		c.logger.Warn("rating stats cache get failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, UnknownVersion, false
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		c.logger.Warn("rating stats version is corrupt", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, UnknownVersion, false
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, false
	}

	stats := models.NewRatingStats()
	if err := json.Unmarshal([]byte(raw), stats); err != nil {
		c.logger.Warn("rating stats cache entry is corrupt", zap.String("user_id", userID.String()), zap.Error(err))
		c.Invalidate(ctx, userID)
		return nil, UnknownVersion, false
	}
	return stats, version, true
}

// Set сохраняет сводку на время TTL, если версия не менялась с момента Get.
func (c *RatingStatsCache) Set(ctx context.Context, userID uuid.UUID, version int64, stats *models.RatingStats) {
	if version == UnknownVersion {
		return
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.Warn("failed to encode rating stats", zap.Error(err))
		return
	}

	versionKey := VersionKey(userID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(userID), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("rating stats changed while computing, not cached", zap.String("user_id", userID.String()))
	default:
		c.logger.Warn("rating stats cache set failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// Invalidate удаляет сводку пользователя и увеличивает её версию.
func (c *RatingStatsCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	versionKey := VersionKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, Key(userID))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionTTL)
		return nil
	})
	if err != nil {
		c.logger.Warn("rating stats cache invalidate failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func parseVersion(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected version type %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}

// Noop - кэш, который ничего не хранит. Используется, когда Redis не настроен.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (*models.RatingStats, int64, bool) {
	return nil, UnknownVersion, false
}
func (Noop) Set(context.Context, uuid.UUID, int64, *models.RatingStats) {}
func (Noop) Invalidate(context.Context, uuid.UUID)                      {}

// Connect создаёт клиента Redis и проверяет соединение.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
