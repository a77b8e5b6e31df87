package storage

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound error
		unique   error
		want     error
	}{
		{"nil", nil, ErrRatingNotFound, nil, nil},
		{"no rows", pgx.ErrNoRows, ErrRatingNotFound, nil, ErrRatingNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, nil, ErrDuplicateRating, ErrDuplicateRating},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, nil, nil, ErrConcurrentModification},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, nil, nil, ErrConcurrentModification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err, "test op", tt.notFound, tt.unique)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("unknown error keeps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		got := classifyError(cause, "update order", ErrClientOrderNotFound, nil)
		assert.ErrorIs(t, got, cause)
		assert.NotErrorIs(t, got, ErrClientOrderNotFound)
		assert.Contains(t, got.Error(), "update order")
	})

	t.Run("unique violation without mapping is wrapped", func(t *testing.T) {
		got := classifyError(&pgconn.PgError{Code: "23505"}, "insert", nil, nil)
		var pgErr *pgconn.PgError
		assert.True(t, errors.As(got, &pgErr))
	})
}
