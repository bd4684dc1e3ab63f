// Package app assembles the store, the event bus and the services from a
// Config. Both the HTTP server and the CLI commands run on an *App.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/aggregate"
	"github.com/tbourn/welder-tracker/internal/config"
	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/events"
	"github.com/tbourn/welder-tracker/internal/repo"
	"github.com/tbourn/welder-tracker/internal/services"
)

// App owns the long-lived dependencies.
type App struct {
	Config   config.Config
	DB       *gorm.DB
	Bus      *events.Dispatcher
	Calendar aggregate.Calendar

	Welders   *services.WelderService
	Norms     *services.NormService
	Records   *services.RecordService
	Snapshots *services.SnapshotService
}

// New opens the database at cfg.DBPath, migrates it and builds the services.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	a := Wire(db, cfg)
	log.Ctx(ctx).Debug().Str("db", cfg.DBPath).Str("tz", a.Calendar.Location.String()).Msg("app ready")
	return a, nil
}

// Wire builds an App around an already migrated database.
func Wire(db *gorm.DB, cfg config.Config) *App {
	bus := events.NewDispatcher()
	cal := aggregate.Calendar{Location: cfg.Location(), Language: cfg.Language()}
	return &App{
		Config:    cfg,
		DB:        db,
		Bus:       bus,
		Calendar:  cal,
		Welders:   services.NewWelderService(db, Store{}),
		Norms:     services.NewNormService(db, Store{}),
		Records:   services.NewRecordService(db, bus, cal),
		Snapshots: services.NewSnapshotService(db, bus),
	}
}

// Close stops the event bus and releases the database.
func (a *App) Close() error {
	a.Bus.Close()
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Store adapts the package-level repo functions to the service repository
// interfaces.
type Store struct{}

func (Store) CreateWelder(ctx context.Context, db *gorm.DB, name string, at time.Time) (*domain.Welder, error) {
	return repo.CreateWelder(ctx, db, name, at)
}

func (Store) GetWelder(ctx context.Context, db *gorm.DB, id uint) (*domain.Welder, error) {
	return repo.GetWelder(ctx, db, id)
}

func (Store) ListWelders(ctx context.Context, db *gorm.DB) ([]domain.Welder, error) {
	return repo.ListWelders(ctx, db)
}

func (Store) CreateNorm(ctx context.Context, db *gorm.DB, article string) (*domain.Norm, error) {
	return repo.CreateNorm(ctx, db, article)
}

func (Store) ListNorms(ctx context.Context, db *gorm.DB) ([]domain.Norm, error) {
	return repo.ListNorms(ctx, db)
}
