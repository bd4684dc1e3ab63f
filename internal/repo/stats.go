// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer and for the
// CLI status line.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// Stats summarizes the store contents.
type Stats struct {
	Welders int64
	Records int64
	Norms   int64
	History int64
	// LastRecordAt is the newest Record.Date, or nil when there are no records.
	LastRecordAt *time.Time
}

// StoreStats counts every kind and finds the most recently touched record.
func StoreStats(ctx context.Context, db *gorm.DB) (Stats, error) {
	var (
		s   Stats
		err error
	)
	if s.Welders, err = Count[domain.Welder](ctx, db); err != nil {
		return Stats{}, err
	}
	if s.Records, err = Count[domain.Record](ctx, db); err != nil {
		return Stats{}, err
	}
	if s.Norms, err = Count[domain.Norm](ctx, db); err != nil {
		return Stats{}, err
	}
	if s.History, err = Count[domain.HistoryEntry](ctx, db); err != nil {
		return Stats{}, err
	}
	if s.Records == 0 {
		return s, nil
	}

	// Get latest date (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Date time.Time
	}
	err = db.WithContext(ctx).
		Model(&domain.Record{}).
		Select("date").
		Order("date DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}
	s.LastRecordAt = &row.Date
	return s, nil
}
