// Package services – SnapshotService
//
// SnapshotService serializes the whole store into a portable document and
// reconciles a document back into the store. Two import modes exist:
//
//   - additive: welders and norms are created one by one; duplicates are
//     skipped and logged. Records and history are never imported this way
//     because their references would need remapping.
//   - replace: destructive. After an explicit confirmation the four
//     collections are cleared and re-populated inside one transaction,
//     remapping record.welderId and history.recordId through old-id→new-id
//     maps built during insertion. Any failure rolls back to the prior state.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/events"
	"github.com/tbourn/welder-tracker/internal/repo"
)

// Import modes.
const (
	ModeAdditive = "additive"
	ModeReplace  = "replace"
)

// ImportReport summarizes one import run.
type ImportReport struct {
	Mode           string `json:"mode"`
	WeldersAdded   int    `json:"weldersAdded"`
	WeldersSkipped int    `json:"weldersSkipped"`
	NormsAdded     int    `json:"normsAdded"`
	NormsSkipped   int    `json:"normsSkipped"`
	RecordsAdded   int    `json:"recordsAdded"`
	HistoryAdded   int    `json:"historyAdded"`
}

// ImportPreview is shown to whoever confirms a replace import.
type ImportPreview struct {
	Incoming domain.SnapshotData
	Current  repo.Stats
}

// Confirmer gates the destructive import path.
type Confirmer interface {
	Confirm(ctx context.Context, p ImportPreview) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p ImportPreview) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, p ImportPreview) (bool, error) {
	return f(ctx, p)
}

// SnapshotService implements export and import.
type SnapshotService struct {
	DB  *gorm.DB
	Bus *events.Dispatcher
	Now func() time.Time
}

// NewSnapshotService constructs a SnapshotService using the wall clock.
func NewSnapshotService(db *gorm.DB, bus *events.Dispatcher) *SnapshotService {
	return &SnapshotService{DB: db, Bus: bus, Now: time.Now}
}

func (s *SnapshotService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// FileName returns the conventional backup file name for the given day.
func FileName(now time.Time) string {
	return "welder-tracker-backup-" + now.Format("2006-01-02") + ".json"
}

// Export gathers the store into a snapshot. Records and history are
// collected per welder and per record, so rows whose parent is missing are
// not exported.
func (s *SnapshotService) Export(ctx context.Context) (*domain.Snapshot, error) {
	tr := otel.Tracer("services/SnapshotService")
	ctx, span := tr.Start(ctx, "Export")
	defer span.End()

	welders, err := repo.ListWelders(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	norms, err := repo.ListNorms(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	data := &domain.SnapshotData{
		Welders: welders,
		Records: []domain.Record{},
		Norms:   norms,
		History: []domain.HistoryEntry{},
	}
	for _, w := range welders {
		records, err := repo.ListRecordsByWelder(ctx, s.DB, w.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			data.Records = append(data.Records, r)
			hist, err := repo.ListHistoryByRecord(ctx, s.DB, r.ID)
			if err != nil {
				return nil, err
			}
			data.History = append(data.History, hist...)
		}
	}
	span.SetAttributes(
		attribute.Int("welders", len(data.Welders)),
		attribute.Int("records", len(data.Records)),
	)
	return &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		ExportDate: s.now().UTC(),
		Data:       data,
	}, nil
}

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap *domain.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Decode reads a snapshot document of at most maxBytes (0 means no limit).
// Documents that are not JSON or lack version or data yield
// ErrMalformedSnapshot.
func Decode(ctx context.Context, r io.Reader, maxBytes int64) (*domain.Snapshot, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrMalformedSnapshot, maxBytes)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if snap.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedSnapshot)
	}
	if snap.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedSnapshot)
	}
	if snap.Version != domain.SnapshotVersion {
		loggerFrom(ctx).Warn().Str("version", snap.Version).Msg("importing snapshot with unknown version")
	}
	return &snap, nil
}

// ImportAdditive creates every welder and norm in snap. Names and articles
// are trimmed; blanks and duplicates are skipped. Other errors stop the
// import and are returned.
func (s *SnapshotService) ImportAdditive(ctx context.Context, snap *domain.Snapshot) (*ImportReport, error) {
	tr := otel.Tracer("services/SnapshotService")
	ctx, span := tr.Start(ctx, "ImportAdditive",
		trace.WithAttributes(attribute.String("import.mode", ModeAdditive)),
	)
	defer span.End()

	if snap == nil || snap.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedSnapshot)
	}
	log := loggerFrom(ctx)
	rep := &ImportReport{Mode: ModeAdditive}
	now := s.now()

	for _, w := range snap.Data.Welders {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			rep.WeldersSkipped++
			log.Debug().Uint("welder_id", w.ID).Msg("import: blank welder name, skipped")
			continue
		}
		if _, err := repo.CreateWelder(ctx, s.DB, name, now); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				rep.WeldersSkipped++
				log.Debug().Str("name", name).Msg("import: welder exists, skipped")
				continue
			}
			imports.WithLabelValues(ModeAdditive, "error").Inc()
			span.RecordError(err)
			return nil, err
		}
		rep.WeldersAdded++
	}
	for _, n := range snap.Data.Norms {
		article := strings.TrimSpace(n.Article)
		if article == "" {
			rep.NormsSkipped++
			log.Debug().Uint("norm_id", n.ID).Msg("import: blank article, skipped")
			continue
		}
		if _, err := repo.CreateNorm(ctx, s.DB, article); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				rep.NormsSkipped++
				log.Debug().Str("article", article).Msg("import: norm exists, skipped")
				continue
			}
			imports.WithLabelValues(ModeAdditive, "error").Inc()
			span.RecordError(err)
			return nil, err
		}
		rep.NormsAdded++
	}

	imports.WithLabelValues(ModeAdditive, "ok").Inc()
	log.Info().
		Int("welders_added", rep.WeldersAdded).
		Int("welders_skipped", rep.WeldersSkipped).
		Int("norms_added", rep.NormsAdded).
		Int("norms_skipped", rep.NormsSkipped).
		Msg("import completed")
	s.publish("import.additive")
	return rep, nil
}

// ImportReplace replaces the store contents with snap. The confirmer is
// consulted before anything is written; a nil confirmer or a declined
// confirmation yields ErrImportAborted.
func (s *SnapshotService) ImportReplace(ctx context.Context, snap *domain.Snapshot, c Confirmer) (*ImportReport, error) {
	tr := otel.Tracer("services/SnapshotService")
	ctx, span := tr.Start(ctx, "ImportReplace",
		trace.WithAttributes(attribute.String("import.mode", ModeReplace)),
	)
	defer span.End()

	if snap == nil || snap.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedSnapshot)
	}
	if err := checkReferences(snap.Data); err != nil {
		return nil, err
	}

	current, err := repo.StoreStats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if c == nil {
		imports.WithLabelValues(ModeReplace, "aborted").Inc()
		return nil, ErrImportAborted
	}
	ok, err := c.Confirm(ctx, ImportPreview{Incoming: *snap.Data, Current: current})
	if err != nil {
		return nil, err
	}
	if !ok {
		imports.WithLabelValues(ModeReplace, "aborted").Inc()
		return nil, ErrImportAborted
	}

	rep := &ImportReport{Mode: ModeReplace}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return replaceAll(ctx, tx, snap.Data, rep)
	})
	if err != nil {
		imports.WithLabelValues(ModeReplace, "error").Inc()
		span.RecordError(err)
		return nil, err
	}

	imports.WithLabelValues(ModeReplace, "ok").Inc()
	span.SetAttributes(
		attribute.Int("records", rep.RecordsAdded),
		attribute.Int("history", rep.HistoryAdded),
	)
	loggerFrom(ctx).Info().
		Int("welders", rep.WeldersAdded).
		Int("norms", rep.NormsAdded).
		Int("records", rep.RecordsAdded).
		Int("history", rep.HistoryAdded).
		Msg("replace import completed")
	s.publish("import.replace")
	return rep, nil
}

// checkReferences rejects documents whose records or history point at ids
// the document does not contain. Welders with a blank name are not imported,
// so records that point at them are rejected too.
func checkReferences(d *domain.SnapshotData) error {
	welders := make(map[uint]struct{}, len(d.Welders))
	for _, w := range d.Welders {
		if strings.TrimSpace(w.Name) != "" {
			welders[w.ID] = struct{}{}
		}
	}
	records := make(map[uint]struct{}, len(d.Records))
	for _, r := range d.Records {
		if _, ok := welders[r.WelderID]; !ok {
			return fmt.Errorf("%w: record %d references unknown welder %d", ErrMalformedSnapshot, r.ID, r.WelderID)
		}
		records[r.ID] = struct{}{}
	}
	for _, h := range d.History {
		if _, ok := records[h.RecordID]; !ok {
			return fmt.Errorf("%w: history %d references unknown record %d", ErrMalformedSnapshot, h.ID, h.RecordID)
		}
	}
	return nil
}

// replaceAll clears the store and re-inserts d through tx, remapping
// references to the freshly assigned ids.
func replaceAll(ctx context.Context, tx *gorm.DB, d *domain.SnapshotData, rep *ImportReport) error {
	if err := repo.Clear[domain.HistoryEntry](ctx, tx); err != nil {
		return err
	}
	if err := repo.Clear[domain.Record](ctx, tx); err != nil {
		return err
	}
	if err := repo.Clear[domain.Norm](ctx, tx); err != nil {
		return err
	}
	if err := repo.Clear[domain.Welder](ctx, tx); err != nil {
		return err
	}

	welderIDs := make(map[uint]uint, len(d.Welders))
	byName := make(map[string]uint, len(d.Welders))
	for _, w := range d.Welders {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			rep.WeldersSkipped++
			continue
		}
		if id, ok := byName[name]; ok {
			welderIDs[w.ID] = id
			rep.WeldersSkipped++
			continue
		}
		nw, err := repo.CreateWelder(ctx, tx, name, w.CreatedAt)
		if err != nil {
			return fmt.Errorf("welder %q: %w", name, err)
		}
		welderIDs[w.ID] = nw.ID
		byName[name] = nw.ID
		rep.WeldersAdded++
	}

	for _, n := range d.Norms {
		article := strings.TrimSpace(n.Article)
		if article == "" {
			rep.NormsSkipped++
			continue
		}
		if _, err := repo.CreateNorm(ctx, tx, article); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				rep.NormsSkipped++
				continue
			}
			return fmt.Errorf("norm %q: %w", article, err)
		}
		rep.NormsAdded++
	}

	recordIDs := make(map[uint]uint, len(d.Records))
	for _, r := range d.Records {
		nr, err := repo.CreateRecord(ctx, tx, welderIDs[r.WelderID], r.Article, r.Quantity, r.Date)
		if err != nil {
			return fmt.Errorf("record %d: %w", r.ID, err)
		}
		recordIDs[r.ID] = nr.ID
		rep.RecordsAdded++
	}

	for _, h := range d.History {
		if _, err := repo.CreateHistory(ctx, tx, recordIDs[h.RecordID], h.OldQuantity, h.NewQuantity, h.Date); err != nil {
			return fmt.Errorf("history %d: %w", h.ID, err)
		}
		rep.HistoryAdded++
	}
	return nil
}

func (s *SnapshotService) publish(source string) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(events.Event{Topic: events.RecordsChanged, Source: source})
}
