package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Consultation links a Paper into a Meeting's agenda. Only the paper side is
// resolved to a surrogate foreign key (best-effort, NULL permitted); the
// meeting and agenda item sides are kept as their upstream external ids,
// since consultations are themselves embedded under Papers and a two-pass
// resolution against agenda items is not attempted (§9 "cyclic/back-reference
// graphs").
type Consultation struct {
	Entity

	BodyID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_consultation_body" json:"body_id"`
	PaperID *uuid.UUID `gorm:"type:uuid;index:idx_consultation_paper" json:"paper_id,omitempty"`

	MeetingExternalID    string `json:"meeting_external_id,omitempty"`
	AgendaItemExternalID string `json:"agenda_item_external_id,omitempty"`

	Role          string `json:"role,omitempty"`
	Authoritative bool   `json:"authoritative"`

	Body  Body   `gorm:"foreignKey:BodyID" json:"-"`
	Paper *Paper `gorm:"foreignKey:PaperID" json:"-"`
}

func (Consultation) TableName() string { return "consultations" }

func (c *Consultation) BeforeCreate(tx *gorm.DB) error {
	c.SetID()
	return nil
}
