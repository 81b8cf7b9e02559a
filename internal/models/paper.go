package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Paper is an OParl Paper (a motion, report, or similar document record)
// belonging to a Body. It may carry embedded Files and Consultations.
type Paper struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_paper_body" json:"body_id"`

	Name      string     `json:"name"`
	Reference string     `json:"reference,omitempty"`
	PaperType string     `gorm:"column:paper_type" json:"paper_type,omitempty"`
	Date      *time.Time `json:"date,omitempty"`

	Body Body `gorm:"foreignKey:BodyID" json:"-"`
}

func (Paper) TableName() string { return "papers" }

func (p *Paper) BeforeCreate(tx *gorm.DB) error {
	p.SetID()
	return nil
}
