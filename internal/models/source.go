package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuthType names how the Fetcher authenticates requests against a Source's host.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
)

// Source is a single OParl endpoint registered with the engine. One source
// typically exposes one or more Bodies reachable from its System document.
type Source struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	URL  string `gorm:"uniqueIndex:idx_source_url;not null" json:"url"`
	Name string `gorm:"not null" json:"name"`

	// RawSystem is the verbatim System document JSON last fetched.
	RawSystem datatypes.JSON `gorm:"type:jsonb" json:"raw_system,omitempty"`

	// Credentials the Fetcher attaches to every request against this source's host.
	AuthType     AuthType `gorm:"type:varchar(20);default:'none'" json:"auth_type"`
	AuthUsername string   `json:"-"`
	AuthSecret   string   `json:"-"`

	LastSync     *time.Time `json:"last_sync,omitempty"`
	LastFullSync *time.Time `json:"last_full_sync,omitempty"`
}

func (Source) TableName() string { return "sources" }

func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.Must(uuid.NewRandom())
	}
	return nil
}
