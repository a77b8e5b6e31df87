package services

import (
	"errors"
	"fmt"

	"github.com/agamariel/artisanmarket/internal/storage"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStatus          = errors.New("invalid status for this order type")
	ErrOrderNotFound          = errors.New("order not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrRateeNotFound          = errors.New("ratee not found")
	ErrRatingNotFound         = errors.New("rating not found")
	ErrProjectNotFound        = errors.New("project not found")
	ErrUnauthorized           = errors.New("not authorized to perform this action")
	ErrNotAuthorizedToRate    = errors.New("you are not authorized to rate this user for this order")
	ErrOrderAlreadyFinalized  = errors.New("order is already finalized")
	ErrOrderNotFinalized      = errors.New("order must be completed before it can be rated")
	ErrDuplicateRating        = errors.New("you have already rated this user for this order")
	ErrConcurrentModification = errors.New("concurrent modification, retry with fresh state")
	ErrStoreFailure           = errors.New("store failure")
)

// ValidationError - ошибка входных данных с конкретным сообщением.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// storeError переводит ошибку хранилища в вид ошибки сервиса, сохраняя причину.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrConcurrentModification):
		return fmt.Errorf("%s: %w: %w", op, ErrConcurrentModification, err)
	case errors.Is(err, storage.ErrClientOrderNotFound), errors.Is(err, storage.ErrArtisanOrderNotFound):
		return fmt.Errorf("%s: %w", op, ErrOrderNotFound)
	case errors.Is(err, storage.ErrRatingNotFound):
		return fmt.Errorf("%s: %w", op, ErrRatingNotFound)
	case errors.Is(err, storage.ErrProjectNotFound):
		return fmt.Errorf("%s: %w", op, ErrProjectNotFound)
	case errors.Is(err, storage.ErrUserNotFound):
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case errors.Is(err, storage.ErrDuplicateRating):
		return fmt.Errorf("%s: %w", op, ErrDuplicateRating)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}

// passThrough оставляет ошибки сервиса как есть, остальные переводит через storeError.
// Нужна для ошибок, вернувшихся из функции транзакции.
func passThrough(op string, err error) error {
	for _, known := range []error{
		ErrInvalidInput, ErrInvalidStatus, ErrOrderNotFound, ErrUserNotFound, ErrRateeNotFound,
		ErrRatingNotFound, ErrUnauthorized, ErrNotAuthorizedToRate, ErrOrderAlreadyFinalized,
		ErrOrderNotFinalized, ErrDuplicateRating, ErrConcurrentModification, ErrStoreFailure,
		ErrProjectNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storeError(op, err)
}
