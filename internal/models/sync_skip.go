package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncSkip is an append-only record of a row a sync run chose not to write,
// and why — FK-unresolved memberships/agenda items and unknown `type` payloads
// (§4.C "skip/error ledger", §12.2). Per-item fetch, parse and write errors
// are not recorded here; they go to the run's error list. Adapted
// from the host's AuditLog: immutable, no soft-delete, CreatedAt-indexed.
type SyncSkip struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"index:idx_skip_created" json:"created_at"`

	SyncRunID  uuid.UUID `gorm:"type:uuid;not null;index:idx_skip_run" json:"sync_run_id"`
	Kind       string    `gorm:"type:varchar(40);not null;index:idx_skip_kind" json:"kind"`
	ExternalID string    `gorm:"not null" json:"external_id"`
	Reason     string    `gorm:"type:varchar(40);not null" json:"reason"`
	Detail     string    `gorm:"type:text" json:"detail,omitempty"`

	SyncRun SyncRun `gorm:"foreignKey:SyncRunID" json:"-"`
}

func (SyncSkip) TableName() string { return "sync_skips" }

func (s *SyncSkip) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.Must(uuid.NewRandom())
	}
	return nil
}

// Skip reason codes written to SyncSkip.Reason.
const (
	SkipReasonFKUnresolved = "fk_unresolved"
	SkipReasonUnknownKind  = "unknown_kind"
	SkipReasonParseError   = "parse_error"
)
