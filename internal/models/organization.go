package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is an OParl Organization: a committee, faction, administrative
// unit, or similar body belonging to a Body.
type Organization struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_org_body" json:"body_id"`

	Name           string     `json:"name"`
	Classification string     `json:"classification,omitempty"`
	OrgType        string     `gorm:"column:org_type" json:"type,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`

	Body Body `gorm:"foreignKey:BodyID" json:"-"`
}

func (Organization) TableName() string { return "organizations" }

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	o.SetID()
	return nil
}
