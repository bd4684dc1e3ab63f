// Package repo – generic store contract.
//
// Every entity kind supports the same operations: create, get by id, get all
// (insertion order), query by a declared secondary index, update by id and
// clear. The per-kind files wrap these helpers with typed signatures.
//
// Error semantics:
//   - Missing ids yield ErrNotFound (alias of gorm.ErrRecordNotFound).
//   - Unique index violations (welder name, norm article) yield ErrDuplicate.
//   - Querying an index that is not declared for the kind yields ErrUnknownIndex.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when an insert breaches a unique index.
var ErrDuplicate = errors.New("duplicate")

// ErrUnknownIndex is returned by QueryByIndex for an undeclared index name.
var ErrUnknownIndex = errors.New("unknown index")

// Kind names one of the four entity collections.
type Kind string

const (
	KindWelders Kind = "welders"
	KindRecords Kind = "records"
	KindNorms   Kind = "norms"
	KindHistory Kind = "history"
)

// Entity is implemented by every persisted domain model.
type Entity interface {
	domain.Welder | domain.Record | domain.Norm | domain.HistoryEntry
	TableName() string
}

// indexes declares the secondary indices per kind: index name → column.
var indexes = map[Kind]map[string]string{
	KindWelders: {"name": "name"},
	KindRecords: {"welderId": "welder_id", "article": "article", "date": "date"},
	KindNorms:   {"article": "article"},
	KindHistory: {"recordId": "record_id", "date": "date"},
}

// KindOf reports the collection a model type is stored in.
func KindOf[T Entity]() Kind {
	var zero T
	return Kind(zero.TableName())
}

// IndexColumn resolves a declared index name to its column.
func IndexColumn(kind Kind, index string) (string, error) {
	col, ok := indexes[kind][index]
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownIndex, kind, index)
	}
	return col, nil
}

// Create inserts v and assigns its id.
func Create[T Entity](ctx context.Context, db *gorm.DB, v *T) error {
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", KindOf[T](), ErrDuplicate)
		}
		return err
	}
	return nil
}

// GetByID fetches one row by primary key, or ErrNotFound.
func GetByID[T Entity](ctx context.Context, db *gorm.DB, id uint) (*T, error) {
	var v T
	if err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// GetAll returns every row of the kind in insertion order.
func GetAll[T Entity](ctx context.Context, db *gorm.DB) ([]T, error) {
	var out []T
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// QueryByIndex returns the rows whose indexed column equals key, in
// insertion order.
func QueryByIndex[T Entity](ctx context.Context, db *gorm.DB, index string, key any) ([]T, error) {
	col, err := IndexColumn(KindOf[T](), index)
	if err != nil {
		return nil, err
	}
	var out []T
	err = db.WithContext(ctx).
		Where(col+" = ?", key).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// Update applies patch (column → value) to the row with the given id.
// It returns ErrNotFound when no row matched.
func Update[T Entity](ctx context.Context, db *gorm.DB, id uint, patch map[string]any) error {
	res := db.WithContext(ctx).
		Model(new(T)).
		Where("id = ?", id).
		Updates(patch)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return fmt.Errorf("%s: %w", KindOf[T](), ErrDuplicate)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every row of the kind.
func Clear[T Entity](ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(new(T)).Error
}

// Count returns the number of rows of the kind.
func Count[T Entity](ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
