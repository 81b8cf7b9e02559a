package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership links a Person to an Organization. Both foreign keys are
// mandatory: a Membership is only ever written once both sides already
// exist in the store for this sync (§3, §4.C) — it is never stored with a
// NULL person_id or organization_id.
type Membership struct {
	Entity

	PersonID       uuid.UUID `gorm:"type:uuid;not null;index:idx_membership_person" json:"person_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_membership_org" json:"organization_id"`

	Role        string     `json:"role,omitempty"`
	VotingRight bool       `json:"voting_right"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`

	Person       Person       `gorm:"foreignKey:PersonID" json:"-"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Membership) TableName() string { return "memberships" }

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	m.SetID()
	return nil
}
