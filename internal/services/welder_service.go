// Package services – WelderService
//
// WelderService registers welders and lists them. Names are trimmed before
// storage; blank names are rejected and duplicates surface as
// ErrConstraintViolation so handlers can map them consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/repo"
)

// WelderRepo defines the repository contract required by WelderService.
type WelderRepo interface {
	// CreateWelder inserts a welder; a duplicate name yields repo.ErrDuplicate.
	CreateWelder(ctx context.Context, db *gorm.DB, name string, createdAt time.Time) (*domain.Welder, error)

	// GetWelder fetches a welder by id.
	GetWelder(ctx context.Context, db *gorm.DB, id uint) (*domain.Welder, error)

	// ListWelders returns every welder in insertion order.
	ListWelders(ctx context.Context, db *gorm.DB) ([]domain.Welder, error)
}

// WelderService provides welder registration and lookup.
type WelderService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the welder repository used by this service.
	Repo WelderRepo
	// Now is the clock used for CreatedAt.
	Now func() time.Time
}

// NewWelderService constructs a WelderService using the wall clock.
func NewWelderService(db *gorm.DB, r WelderRepo) *WelderService {
	return &WelderService{DB: db, Repo: r, Now: time.Now}
}

// Add registers a welder by name.
func (s *WelderService) Add(ctx context.Context, name string) (*domain.Welder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	w, err := s.Repo.CreateWelder(ctx, s.DB, name, now)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("welder %q: %w", name, ErrConstraintViolation)
		}
		return nil, err
	}
	loggerFrom(ctx).Info().Uint("welder_id", w.ID).Str("name", w.Name).Msg("welder added")
	return w, nil
}

// Get returns one welder, or ErrNotFound.
func (s *WelderService) Get(ctx context.Context, id uint) (*domain.Welder, error) {
	w, err := s.Repo.GetWelder(ctx, s.DB, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("welder %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return w, nil
}

// List returns all welders in insertion order.
func (s *WelderService) List(ctx context.Context) ([]domain.Welder, error) {
	return s.Repo.ListWelders(ctx, s.DB)
}
