// Package repo – welder persistence.
//
// Welders are created explicitly and never mutated; they are removed only by
// a bulk Clear during replace-import. The name column carries a unique index.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// CreateWelder inserts a welder. A zero createdAt is replaced by the current
// time. A duplicate name yields ErrDuplicate.
func CreateWelder(ctx context.Context, db *gorm.DB, name string, createdAt time.Time) (*domain.Welder, error) {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	w := &domain.Welder{Name: name, CreatedAt: createdAt}
	if err := Create(ctx, db, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWelder fetches a welder by id, or ErrNotFound.
func GetWelder(ctx context.Context, db *gorm.DB, id uint) (*domain.Welder, error) {
	return GetByID[domain.Welder](ctx, db, id)
}

// ListWelders returns every welder in insertion order.
func ListWelders(ctx context.Context, db *gorm.DB) ([]domain.Welder, error) {
	return GetAll[domain.Welder](ctx, db)
}
