package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// CreateNorm inserts an article code. A duplicate article yields ErrDuplicate.
func CreateNorm(ctx context.Context, db *gorm.DB, article string) (*domain.Norm, error) {
	n := &domain.Norm{Article: article}
	if err := Create(ctx, db, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNorms returns every norm in insertion order.
func ListNorms(ctx context.Context, db *gorm.DB) ([]domain.Norm, error) {
	return GetAll[domain.Norm](ctx, db)
}

// IsNotFound reports whether err means a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
