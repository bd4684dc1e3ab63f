package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/aggregate"
	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/events"
	"github.com/tbourn/welder-tracker/internal/repo"
)

// newTestDB opens a migrated file-backed database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "services_test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newRecordService(db *gorm.DB, c *clock) *RecordService {
	return &RecordService{
		DB:       db,
		Bus:      events.NewDispatcher(),
		Calendar: aggregate.Calendar{Location: time.UTC},
		Now:      c.Now,
	}
}

// storeRepo forwards to the package-level repo functions.
type storeRepo struct{}

func (storeRepo) CreateWelder(ctx context.Context, db *gorm.DB, name string, at time.Time) (*domain.Welder, error) {
	return repo.CreateWelder(ctx, db, name, at)
}
func (storeRepo) GetWelder(ctx context.Context, db *gorm.DB, id uint) (*domain.Welder, error) {
	return repo.GetWelder(ctx, db, id)
}
func (storeRepo) ListWelders(ctx context.Context, db *gorm.DB) ([]domain.Welder, error) {
	return repo.ListWelders(ctx, db)
}
func (storeRepo) CreateNorm(ctx context.Context, db *gorm.DB, article string) (*domain.Norm, error) {
	return repo.CreateNorm(ctx, db, article)
}
func (storeRepo) ListNorms(ctx context.Context, db *gorm.DB) ([]domain.Norm, error) {
	return repo.ListNorms(ctx, db)
}

func mustWelder(t *testing.T, db *gorm.DB, name string) *domain.Welder {
	t.Helper()
	w, err := repo.CreateWelder(context.Background(), db, name, time.Time{})
	if err != nil {
		t.Fatalf("CreateWelder(%q): %v", name, err)
	}
	return w
}
