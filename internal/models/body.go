package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Body is an OParl Body — typically a municipal council — which owns one
// independent tree of organizations, persons, meetings, papers, etc.
type Body struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_body_source" json:"source_id"`

	ExternalID string `gorm:"uniqueIndex:idx_body_external;not null" json:"external_id"`
	Name       string `json:"name"`
	ShortName  string `json:"short_name,omitempty"`

	// Sub-endpoint list URLs, one per child kind.
	OrganizationURL    string `json:"organization_url,omitempty"`
	PersonURL          string `json:"person_url,omitempty"`
	MeetingURL         string `json:"meeting_url,omitempty"`
	PaperURL           string `json:"paper_url,omitempty"`
	LegislativeTermURL string `json:"legislative_term_url,omitempty"`
	AgendaItemURL      string `json:"agenda_item_url,omitempty"`
	ConsultationURL    string `json:"consultation_url,omitempty"`
	FileURL            string `json:"file_url,omitempty"`
	LocationURL        string `json:"location_url,omitempty"`
	MembershipURL      string `json:"membership_url,omitempty"`

	OparlCreated  *time.Time `json:"oparl_created,omitempty"`
	OparlModified *time.Time `json:"oparl_modified,omitempty"`
	RawJSON       string     `gorm:"type:text" json:"-"`

	LastSync *time.Time `json:"last_sync,omitempty"`

	Source Source `gorm:"foreignKey:SourceID" json:"-"`
}

func (Body) TableName() string { return "bodies" }

func (b *Body) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.Must(uuid.NewRandom())
	}
	return nil
}
