package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrClientOrderNotFound    = errors.New("client order not found")
	ErrArtisanOrderNotFound   = errors.New("artisan order not found")
	ErrRatingNotFound         = errors.New("rating not found")
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrProjectNotFound        = errors.New("project not found")
	ErrDuplicateRating        = errors.New("rating already exists")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// Коды SQLSTATE, которые получают собственную обработку.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// classifyError приводит ошибку драйвера к sentinel-ошибкам хранилища.
// notFound подставляется для pgx.ErrNoRows, unique - для нарушения уникальности.
func classifyError(err error, op string, notFound, unique error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			if unique != nil {
				return unique
			}
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%s: %w", op, ErrConcurrentModification)
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
