// Package services – RecordService
//
// This file implements the record update protocol. A production entry for
// (welder, article) either merges into the welder's record for the same
// article in the current calendar month or creates a new record. Every
// quantity change of an existing record appends one immutable history entry.
// The record write and its history insert share one transaction.
//
// Observability: public methods are OpenTelemetry-instrumented and publish
// events.RecordsChanged after a successful write.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/welder-tracker/internal/aggregate"
	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/events"
	"github.com/tbourn/welder-tracker/internal/repo"
)

// RecordService owns production entries and their history.
type RecordService struct {
	DB       *gorm.DB
	Bus      *events.Dispatcher
	Calendar aggregate.Calendar
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewRecordService constructs a RecordService using the wall clock.
func NewRecordService(db *gorm.DB, bus *events.Dispatcher, cal aggregate.Calendar) *RecordService {
	return &RecordService{DB: db, Bus: bus, Calendar: cal, Now: time.Now}
}

// AddResult describes the outcome of Add.
type AddResult struct {
	Record domain.Record `json:"record"`
	// History is set when the entry merged into an existing record.
	History *domain.HistoryEntry `json:"history,omitempty"`
	Merged  bool                 `json:"merged"`
}

// CorrectResult describes the outcome of Correct.
type CorrectResult struct {
	Record  domain.Record        `json:"record"`
	History *domain.HistoryEntry `json:"history,omitempty"`
	Changed bool                 `json:"changed"`
}

// WelderCard is one welder with their records grouped by month.
type WelderCard struct {
	Welder domain.Welder         `json:"welder"`
	Months []aggregate.CardMonth `json:"months"`
}

// Add logs a production entry from raw user input. Blank article or
// quantity (after trimming) declines silently: it returns (nil, nil) and
// writes nothing. Unparseable quantities yield ErrInvalidQuantity.
func (s *RecordService) Add(ctx context.Context, welderID uint, article, quantity string) (*AddResult, error) {
	article = strings.TrimSpace(article)
	quantity = strings.TrimSpace(quantity)
	if article == "" || quantity == "" {
		return nil, nil
	}
	delta, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}
	return s.AddQuantity(ctx, welderID, article, delta)
}

// AddQuantity applies the record update protocol for an already parsed
// delta:
//
//  1. Take the calendar month of now.
//  2. Look for the welder's record with exactly this article in that month.
//  3. If found, set quantity to Round2(existing + delta), date to now, and
//     append a history entry {old, new}.
//  4. Otherwise create a record with quantity Round2(delta) and no history.
func (s *RecordService) AddQuantity(ctx context.Context, welderID uint, article string, delta float64) (*AddResult, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "AddQuantity",
		trace.WithAttributes(
			attribute.Int64("welder.id", int64(welderID)),
			attribute.String("article", article),
		),
	)
	defer span.End()

	article = strings.TrimSpace(article)
	if article == "" {
		return nil, nil
	}
	if !isFinite(delta) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantity, delta)
	}
	delta = aggregate.Round2(delta)
	now := s.now()

	if _, err := repo.GetWelder(ctx, s.DB, welderID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("welder %d: %w", welderID, ErrNotFound)
		}
		return nil, err
	}

	var res AddResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		records, err := repo.ListRecordsByWelder(ctx, tx, welderID)
		if err != nil {
			return err
		}
		existing := s.findMonthRecord(records, article, now)
		if existing == nil {
			rec, err := repo.CreateRecord(ctx, tx, welderID, article, delta, now)
			if err != nil {
				return err
			}
			res.Record = *rec
			return nil
		}

		oldQty := existing.Quantity
		newQty := aggregate.Round2(oldQty + delta)
		if err := repo.UpdateRecordQuantity(ctx, tx, existing.ID, newQty, now); err != nil {
			return err
		}
		h, err := repo.CreateHistory(ctx, tx, existing.ID, oldQty, newQty, now)
		if err != nil {
			return err
		}
		existing.Quantity = newQty
		existing.Date = now
		res.Record = *existing
		res.History = h
		res.Merged = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if res.Merged {
		recordsAdded.WithLabelValues("merged").Inc()
		historyEntries.Inc()
	} else {
		recordsAdded.WithLabelValues("created").Inc()
	}
	span.SetAttributes(attribute.Bool("merged", res.Merged))
	s.publish("record.add", res.Record.ID)
	return &res, nil
}

// findMonthRecord returns the most recently touched record with the exact
// article in the month of now, or nil.
func (s *RecordService) findMonthRecord(records []domain.Record, article string, now time.Time) *domain.Record {
	var found *domain.Record
	for i := range records {
		r := &records[i]
		if r.Article != article || !s.Calendar.SameMonth(r.Date, now) {
			continue
		}
		if found == nil || r.Date.After(found.Date) {
			found = r
		}
	}
	return found
}

// Correct overwrites a record's quantity from raw user input. A blank input
// declines silently. When the rounded value equals the current quantity
// nothing is written and Changed is false.
func (s *RecordService) Correct(ctx context.Context, recordID uint, quantity string) (*CorrectResult, error) {
	quantity = strings.TrimSpace(quantity)
	if quantity == "" {
		return nil, nil
	}
	q, err := ParseQuantity(quantity)
	if err != nil {
		return nil, err
	}
	return s.SetQuantity(ctx, recordID, q)
}

// SetQuantity unconditionally sets the record's quantity and date and
// appends a history entry holding the prior quantity, unless the value is
// unchanged.
func (s *RecordService) SetQuantity(ctx context.Context, recordID uint, quantity float64) (*CorrectResult, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "SetQuantity",
		trace.WithAttributes(attribute.Int64("record.id", int64(recordID))),
	)
	defer span.End()

	if !isFinite(quantity) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuantity, quantity)
	}
	newQty := aggregate.Round2(quantity)

	rec, err := repo.GetRecord(ctx, s.DB, recordID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("record %d: %w", recordID, ErrNotFound)
		}
		return nil, err
	}
	if rec.Quantity == newQty {
		return &CorrectResult{Record: *rec}, nil
	}

	now := s.now()
	var h *domain.HistoryEntry
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateRecordQuantity(ctx, tx, rec.ID, newQty, now); err != nil {
			return err
		}
		var err error
		h, err = repo.CreateHistory(ctx, tx, rec.ID, rec.Quantity, newQty, now)
		return err
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("record %d: %w", recordID, ErrNotFound)
		}
		return nil, err
	}

	historyEntries.Inc()
	rec.Quantity = newQty
	rec.Date = now
	s.publish("record.correct", rec.ID)
	return &CorrectResult{Record: *rec, History: h, Changed: true}, nil
}

// ListByWelder returns the welder's records, most recently touched first.
func (s *RecordService) ListByWelder(ctx context.Context, welderID uint) ([]domain.Record, error) {
	records, err := repo.ListRecordsByWelder(ctx, s.DB, welderID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

// History returns the record's history entries, oldest first.
func (s *RecordService) History(ctx context.Context, recordID uint) ([]domain.HistoryEntry, error) {
	if _, err := repo.GetRecord(ctx, s.DB, recordID); err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("record %d: %w", recordID, ErrNotFound)
		}
		return nil, err
	}
	return repo.ListHistoryByRecord(ctx, s.DB, recordID)
}

// WelderCard returns the welder with their records grouped by month and
// aggregated per article.
func (s *RecordService) WelderCard(ctx context.Context, welderID uint) (*WelderCard, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "WelderCard",
		trace.WithAttributes(attribute.Int64("welder.id", int64(welderID))),
	)
	defer span.End()

	w, err := repo.GetWelder(ctx, s.DB, welderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("welder %d: %w", welderID, ErrNotFound)
		}
		return nil, err
	}
	records, err := repo.ListRecordsByWelder(ctx, s.DB, welderID)
	if err != nil {
		return nil, err
	}
	return &WelderCard{Welder: *w, Months: s.Calendar.WelderCard(records)}, nil
}

// Summary returns the cross-welder month summary. Records are gathered per
// welder, so records pointing at a missing welder are not included.
func (s *RecordService) Summary(ctx context.Context) ([]aggregate.MonthSummary, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Summary")
	defer span.End()

	welders, err := repo.ListWelders(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	var all []aggregate.AttributedRecord
	for _, w := range welders {
		records, err := repo.ListRecordsByWelder(ctx, s.DB, w.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			all = append(all, aggregate.AttributedRecord{Record: r, WelderName: w.Name})
		}
	}
	return s.Calendar.Summarize(all), nil
}

func (s *RecordService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RecordService) publish(source string, recordID uint) {
	if s.Bus == nil {
		return
	}
	s.Bus.Publish(events.Event{Topic: events.RecordsChanged, Source: source, RecordID: recordID})
}
