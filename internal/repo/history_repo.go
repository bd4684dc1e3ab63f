package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// CreateHistory appends an immutable history entry for recordID.
func CreateHistory(ctx context.Context, db *gorm.DB, recordID uint, oldQty, newQty float64, date time.Time) (*domain.HistoryEntry, error) {
	h := &domain.HistoryEntry{
		RecordID:    recordID,
		OldQuantity: oldQty,
		NewQuantity: newQty,
		Date:        date,
	}
	if err := Create(ctx, db, h); err != nil {
		return nil, err
	}
	return h, nil
}

// ListHistoryByRecord returns the record's history, oldest first.
func ListHistoryByRecord(ctx context.Context, db *gorm.DB, recordID uint) ([]domain.HistoryEntry, error) {
	return QueryByIndex[domain.HistoryEntry](ctx, db, "recordId", recordID)
}
