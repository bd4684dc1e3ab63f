// Package services – NormService
//
// NormService maintains the catalogue of known article codes. Storage is
// case-sensitive, but Add refuses an article that differs from an existing
// one only by case, and Similar offers case-insensitive prefix suggestions
// for entry forms.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/repo"
)

// NormRepo defines the repository contract required by NormService.
type NormRepo interface {
	CreateNorm(ctx context.Context, db *gorm.DB, article string) (*domain.Norm, error)
	ListNorms(ctx context.Context, db *gorm.DB) ([]domain.Norm, error)
}

// NormService provides article catalogue operations.
type NormService struct {
	DB   *gorm.DB
	Repo NormRepo
}

// NewNormService constructs a NormService.
func NewNormService(db *gorm.DB, r NormRepo) *NormService {
	return &NormService{DB: db, Repo: r}
}

// foldArticle case-folds an article code. Casers are stateful, so each call
// gets its own.
func foldArticle(s string) string { return cases.Fold().String(s) }

// Add registers an article code.
func (s *NormService) Add(ctx context.Context, article string) (*domain.Norm, error) {
	article = strings.TrimSpace(article)
	if article == "" {
		return nil, ErrEmptyArticle
	}

	existing, err := s.Repo.ListNorms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	key := foldArticle(article)
	for _, n := range existing {
		if foldArticle(n.Article) == key {
			return nil, fmt.Errorf("article %q clashes with %q: %w", article, n.Article, ErrConstraintViolation)
		}
	}

	n, err := s.Repo.CreateNorm(ctx, s.DB, article)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("article %q: %w", article, ErrConstraintViolation)
		}
		return nil, err
	}
	loggerFrom(ctx).Info().Uint("norm_id", n.ID).Str("article", n.Article).Msg("norm added")
	return n, nil
}

// List returns all norms in insertion order.
func (s *NormService) List(ctx context.Context) ([]domain.Norm, error) {
	return s.Repo.ListNorms(ctx, s.DB)
}

// Similar returns norms whose article contains prefix, compared without
// regard to case. Matches that start with prefix come first. A blank
// prefix returns nothing.
func (s *NormService) Similar(ctx context.Context, prefix string) ([]domain.Norm, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []domain.Norm{}, nil
	}
	all, err := s.Repo.ListNorms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	key := foldArticle(prefix)
	var head, tail []domain.Norm
	for _, n := range all {
		a := foldArticle(n.Article)
		switch {
		case strings.HasPrefix(a, key):
			head = append(head, n)
		case strings.Contains(a, key):
			tail = append(tail, n)
		}
	}
	return append(append([]domain.Norm{}, head...), tail...), nil
}
