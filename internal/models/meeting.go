package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meeting is an OParl Meeting belonging to a Body. It may carry embedded
// AgendaItems, Files and a Location, each upserted as first-class rows.
type Meeting struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_meeting_body" json:"body_id"`

	Name      string     `json:"name"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	State     string     `json:"state,omitempty"`
	Cancelled bool       `json:"cancelled"`

	LocationID *uuid.UUID `gorm:"type:uuid;index:idx_meeting_location" json:"location_id,omitempty"`

	Body     Body      `gorm:"foreignKey:BodyID" json:"-"`
	Location *Location `gorm:"foreignKey:LocationID" json:"-"`
}

func (Meeting) TableName() string { return "meetings" }

func (m *Meeting) BeforeCreate(tx *gorm.DB) error {
	m.SetID()
	return nil
}
