// Package repo – record persistence.
//
// Records reference their welder by a soft WelderID. The repository does not
// enforce the one-record-per-(welder, article, month) rule; that belongs to
// the record update protocol in the services package.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// CreateRecord inserts a record and returns it with its assigned id.
func CreateRecord(ctx context.Context, db *gorm.DB, welderID uint, article string, quantity float64, date time.Time) (*domain.Record, error) {
	r := &domain.Record{
		WelderID: welderID,
		Article:  article,
		Quantity: quantity,
		Date:     date,
	}
	if err := Create(ctx, db, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecord fetches a record by id, or ErrNotFound.
func GetRecord(ctx context.Context, db *gorm.DB, id uint) (*domain.Record, error) {
	return GetByID[domain.Record](ctx, db, id)
}

// ListRecordsByWelder returns the welder's records in insertion order.
func ListRecordsByWelder(ctx context.Context, db *gorm.DB, welderID uint) ([]domain.Record, error) {
	return QueryByIndex[domain.Record](ctx, db, "welderId", welderID)
}

// UpdateRecordQuantity overwrites quantity and date. It returns ErrNotFound
// when the record does not exist.
func UpdateRecordQuantity(ctx context.Context, db *gorm.DB, id uint, quantity float64, date time.Time) error {
	return Update[domain.Record](ctx, db, id, map[string]any{
		"quantity": quantity,
		"date":     date,
	})
}
