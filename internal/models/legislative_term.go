package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LegislativeTerm belongs to a Body and is always observed embedded inside
// the Body document rather than fetched from a standalone list.
type LegislativeTerm struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_term_body" json:"body_id"`

	Name      string     `json:"name,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Body Body `gorm:"foreignKey:BodyID" json:"-"`
}

func (LegislativeTerm) TableName() string { return "legislative_terms" }

func (t *LegislativeTerm) BeforeCreate(tx *gorm.DB) error {
	t.SetID()
	return nil
}
