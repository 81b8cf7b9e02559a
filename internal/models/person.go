package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Person is an OParl Person belonging to a Body. It may carry embedded
// Memberships, which are upserted as first-class Membership rows (§3).
type Person struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_person_body" json:"body_id"`

	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Email      string `json:"email,omitempty"`

	Body Body `gorm:"foreignKey:BodyID" json:"-"`
}

func (Person) TableName() string { return "persons" }

func (p *Person) BeforeCreate(tx *gorm.DB) error {
	p.SetID()
	return nil
}
