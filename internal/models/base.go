package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity holds the fields every OParl-derived kind carries: a surrogate id,
// the upstream external id (its URL, unique per kind), the two upstream
// timestamps the incremental logic compares against, and the raw JSON kept
// verbatim for forensic re-processing.
type Entity struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ExternalID    string     `gorm:"uniqueIndex;not null" json:"external_id"`
	OparlCreated  *time.Time `json:"oparl_created,omitempty"`
	OparlModified *time.Time `json:"oparl_modified,omitempty"`
	RawJSON       string     `gorm:"type:text" json:"-"`
}

// SetID assigns a surrogate id if one is not already set.
func (e *Entity) SetID() {
	if e.ID == uuid.Nil {
		e.ID = uuid.Must(uuid.NewRandom())
	}
}
