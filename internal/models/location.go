package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Location is an OParl Location belonging to a Body.
type Location struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_location_body" json:"body_id"`

	Description string         `json:"description,omitempty"`
	Room        string         `json:"room,omitempty"`
	PostalCode  string         `json:"postal_code,omitempty"`
	Locality    string         `json:"locality,omitempty"`
	StreetAddr  string         `gorm:"column:street_address" json:"street_address,omitempty"`
	GeoJSON     datatypes.JSON `gorm:"type:jsonb" json:"geojson,omitempty"`

	Body Body `gorm:"foreignKey:BodyID" json:"-"`
}

func (Location) TableName() string { return "locations" }

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	l.SetID()
	return nil
}
