package storage

import (
	"context"
	"fmt"

	"github.com/agamariel/artisanmarket/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, role, average_rating, created_at, updated_at`

// PostgresUserStorage читает пользователей и пишет их производный рейтинг.
type PostgresUserStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStorage создаёт новый экземпляр PostgresUserStorage.
func NewPostgresUserStorage(pool *pgxpool.Pool) *PostgresUserStorage {
	return &PostgresUserStorage{pool: pool}
}

// GetByID ищет пользователя по ID.
func (s *PostgresUserStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyError(err, "get user by id", ErrUserNotFound, nil)
	}
	return user, nil
}

// ListIDsByRole возвращает id всех пользователей роли.
func (s *PostgresUserStorage) ListIDsByRole(ctx context.Context, role models.Role) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `SELECT id FROM users WHERE role = $1 ORDER BY created_at`, role)
}

// ListAllIDs возвращает id всех пользователей.
func (s *PostgresUserStorage) ListAllIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, `SELECT id FROM users ORDER BY created_at`)
}

func (s *PostgresUserStorage) listIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "list user ids", nil, nil)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, classifyError(err, "collect user ids", nil, nil)
	}
	return ids, nil
}

// UpdateAverageRating перезаписывает производный рейтинг пользователя.
func (s *PostgresUserStorage) UpdateAverageRating(ctx context.Context, id uuid.UUID, average float64) error {
	query := `
		UPDATE users
		SET average_rating = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := s.pool.Exec(ctx, query, average, id)
	if err != nil {
		return classifyError(err, "update average rating", nil, nil)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// TopRated возвращает пользователей роли с ненулевым рейтингом по убыванию.
func (s *PostgresUserStorage) TopRated(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	query, args, err := psql.
		Select(userColumns).
		From("users").
		Where("role = ? AND average_rating > 0", role).
		OrderBy("average_rating DESC", "created_at").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top rated query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "query top rated", nil, nil)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classifyError(err, "scan user", nil, nil)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "iterate users", nil, nil)
	}

	return users, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.AverageRating,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
