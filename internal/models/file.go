package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is an OParl File, belonging to a Body with optional back-references
// to the Paper and/or Meeting it was attached to. A File observed standalone
// must never clobber a non-null paper_id/meeting_id set by an earlier
// embedded observation with NULL (§3, §4.C) — the store enforces this, not
// the model.
type File struct {
	Entity

	BodyID uuid.UUID `gorm:"type:uuid;not null;index:idx_file_body" json:"body_id"`

	PaperID   *uuid.UUID `gorm:"type:uuid;index:idx_file_paper" json:"paper_id,omitempty"`
	MeetingID *uuid.UUID `gorm:"type:uuid;index:idx_file_meeting" json:"meeting_id,omitempty"`

	FileName    string `json:"file_name,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	AccessURL   string `json:"access_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`

	// TextExtractionStatus is owned by another actor (text extraction); the
	// sync engine only ever writes "pending" on first insert and otherwise
	// leaves the column alone.
	TextExtractionStatus string `gorm:"default:'pending'" json:"text_extraction_status,omitempty"`

	Body    Body     `gorm:"foreignKey:BodyID" json:"-"`
	Paper   *Paper   `gorm:"foreignKey:PaperID" json:"-"`
	Meeting *Meeting `gorm:"foreignKey:MeetingID" json:"-"`
}

func (File) TableName() string { return "files" }

func (f *File) BeforeCreate(tx *gorm.DB) error {
	f.SetID()
	return nil
}
