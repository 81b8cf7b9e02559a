package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncRunStatus is the lifecycle state of a SyncRun.
type SyncRunStatus string

const (
	SyncRunRunning SyncRunStatus = "running"
	SyncRunSuccess SyncRunStatus = "success"
	SyncRunPartial SyncRunStatus = "partial"
	SyncRunFailed  SyncRunStatus = "failed"
)

// SyncRun records one invocation of the orchestrator against a single
// source: start/end time, mode, per-kind counts and error count (§12.1).
// It has no DeletedAt — sync runs are an immutable audit trail.
type SyncRun struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_syncrun_created" json:"created_at"`

	SourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_syncrun_source" json:"source_id"`

	Full      bool          `json:"full"`
	Status    SyncRunStatus `gorm:"type:varchar(20);default:'running'" json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`

	// Counts maps each body's external id to its per-kind
	// {"synced": n, "tombstoned": n, "skipped": n} counts.
	Counts datatypes.JSON `gorm:"type:jsonb" json:"counts,omitempty"`
	Errors datatypes.JSON `gorm:"type:jsonb" json:"errors,omitempty"`

	HTTPRequests int `json:"http_requests"`
	CacheHits    int `json:"cache_hits"`

	Source Source `gorm:"foreignKey:SourceID" json:"-"`
}

func (SyncRun) TableName() string { return "sync_runs" }

func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewRandom())
	}
	return nil
}
