// Package domain defines the persistence models for welders, production
// records, article norms and the quantity edit history. These types are mapped
// with GORM and double as the entity shapes of the snapshot document.
//
// References between entities (Record.WelderID, HistoryEntry.RecordID) are
// soft: no foreign key constraint is declared, consistency is maintained by
// the service layer.
package domain

import "time"

// Welder is a person whose production output is tracked.
//
// Fields:
//   - ID: autoincrement primary key.
//   - Name: display name, unique across welders.
//   - CreatedAt: time the welder was added; never mutated afterwards.
type Welder struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null;uniqueIndex:ux_welders_name"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// TableName returns the database table name for Welder.
func (Welder) TableName() string { return "welders" }

// Record is one (welder, article, month) production entry with a running
// quantity. Date is overwritten on every quantity change, so it reflects the
// last modification rather than the creation time.
type Record struct {
	ID       uint      `json:"id"       gorm:"primaryKey;autoIncrement"`
	WelderID uint      `json:"welderId" gorm:"not null;index:idx_records_welder_id"`
	Article  string    `json:"article"  gorm:"type:varchar(255);not null;index:idx_records_article"`
	Quantity float64   `json:"quantity" gorm:"not null"`
	Date     time.Time `json:"date"     gorm:"not null;index:idx_records_date"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }

// Norm is a known-valid article code. The list is advisory: Record.Article is
// free text and is never checked against it by the store.
type Norm struct {
	ID      uint   `json:"id"      gorm:"primaryKey;autoIncrement"`
	Article string `json:"article" gorm:"type:varchar(255);not null;uniqueIndex:ux_norms_article"`
}

// TableName returns the database table name for Norm.
func (Norm) TableName() string { return "norms" }

// HistoryEntry is an immutable log line describing one quantity change of a
// record. Entries are created once and never updated or deleted.
type HistoryEntry struct {
	ID          uint      `json:"id"          gorm:"primaryKey;autoIncrement"`
	RecordID    uint      `json:"recordId"    gorm:"not null;index:idx_history_record_id"`
	OldQuantity float64   `json:"oldQuantity" gorm:"not null"`
	NewQuantity float64   `json:"newQuantity" gorm:"not null"`
	Date        time.Time `json:"date"        gorm:"not null;index:idx_history_date"`
}

// TableName returns the database table name for HistoryEntry.
func (HistoryEntry) TableName() string { return "history" }
