package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgendaItem belongs to a Meeting. The meeting foreign key is mandatory: an
// AgendaItem is skipped on the pass it is observed if the meeting cannot be
// resolved (§3, §4.C).
type AgendaItem struct {
	Entity

	MeetingID uuid.UUID `gorm:"type:uuid;not null;index:idx_agenda_meeting" json:"meeting_id"`
	PaperID   *uuid.UUID `gorm:"type:uuid;index:idx_agenda_paper" json:"paper_id,omitempty"`

	Number string `json:"number,omitempty"`
	Order  int    `json:"order"`
	Name   string `json:"name,omitempty"`
	Public bool   `json:"public"`
	Result string `json:"result,omitempty"`

	Meeting Meeting `gorm:"foreignKey:MeetingID" json:"-"`
	Paper   *Paper  `gorm:"foreignKey:PaperID" json:"-"`
}

func (AgendaItem) TableName() string { return "agenda_items" }

func (a *AgendaItem) BeforeCreate(tx *gorm.DB) error {
	a.SetID()
	return nil
}
