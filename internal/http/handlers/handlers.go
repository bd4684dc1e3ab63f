// Package handlers exposes the welder tracker over HTTP. Handlers are
// transport-thin: they validate input, call the services and translate
// results (and service errors) into HTTP responses.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/welder-tracker/internal/aggregate"
	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/repo"
	"github.com/tbourn/welder-tracker/internal/services"
	"github.com/tbourn/welder-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// WelderService registers and lists welders.
type WelderService interface {
	Add(ctx context.Context, name string) (*domain.Welder, error)
	Get(ctx context.Context, id uint) (*domain.Welder, error)
	List(ctx context.Context) ([]domain.Welder, error)
}

// NormService maintains the article catalogue.
type NormService interface {
	Add(ctx context.Context, article string) (*domain.Norm, error)
	List(ctx context.Context) ([]domain.Norm, error)
	Similar(ctx context.Context, prefix string) ([]domain.Norm, error)
}

// RecordService applies production entries and corrections and builds the
// aggregated views.
type RecordService interface {
	Add(ctx context.Context, welderID uint, article, quantity string) (*services.AddResult, error)
	Correct(ctx context.Context, recordID uint, quantity string) (*services.CorrectResult, error)
	ListByWelder(ctx context.Context, welderID uint) ([]domain.Record, error)
	History(ctx context.Context, recordID uint) ([]domain.HistoryEntry, error)
	WelderCard(ctx context.Context, welderID uint) (*services.WelderCard, error)
	Summary(ctx context.Context) ([]aggregate.MonthSummary, error)
}

// SnapshotService exports and imports the whole store.
type SnapshotService interface {
	Export(ctx context.Context) (*domain.Snapshot, error)
	ImportAdditive(ctx context.Context, snap *domain.Snapshot) (*services.ImportReport, error)
	ImportReplace(ctx context.Context, snap *domain.Snapshot, c services.Confirmer) (*services.ImportReport, error)
}

// StatsFunc summarizes the store for conditional GETs.
type StatsFunc func(ctx context.Context) (repo.Stats, error)

//
// Handler wiring
//

// Handlers groups the HTTP endpoints.
type Handlers struct {
	welders   WelderService
	norms     NormService
	records   RecordService
	snapshots SnapshotService
	stats     StatsFunc

	// Replays holds results of entries posted with an Idempotency-Key.
	Replays *ReplayStore
	// MaxImportBytes caps snapshot uploads.
	MaxImportBytes int64
	// Changes is folded into the summary ETag.
	Changes *Generation
}

// New constructs Handlers bound to the given services.
func New(w WelderService, n NormService, r RecordService, s SnapshotService, stats StatsFunc) *Handlers {
	return &Handlers{
		welders:        w,
		norms:          n,
		records:        r,
		snapshots:      s,
		stats:          stats,
		Replays:        NewReplayStore(0),
		MaxImportBytes: 10 << 20,
		Changes:        NewGeneration(),
	}
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+": "+err.Error())
		return 0, false
	}
	return id, true
}
