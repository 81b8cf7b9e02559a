package processor

import (
	"time"

	"github.com/mandari/oparlsync/internal/oparl"
)

// Processed is the sum type the processor returns for one raw item (§9
// "dynamic dispatch over kinds"): a tagged struct with a Kind discriminator
// and one non-nil payload field per variant. The store switches on Kind.
type Processed struct {
	Kind       oparl.Kind
	ExternalID string
	RawJSON    string

	OparlCreated  *time.Time
	OparlModified *time.Time
	Deleted       bool

	// BodyExternalID is the external id of the body this item belongs to,
	// threaded down from the EntityPipeline that fetched it (every list is
	// fetched per-body, §2).
	BodyExternalID string

	Body            *BodyFields
	Organization    *OrganizationFields
	Person          *PersonFields
	Membership      *MembershipFields
	Meeting         *MeetingFields
	Paper           *PaperFields
	AgendaItem      *AgendaItemFields
	File            *FileFields
	Location        *LocationFields
	Consultation    *ConsultationFields
	LegislativeTerm *LegislativeTermFields

	// NestedEntities holds embedded children re-processed as first-class
	// Processed values (§4.B), attached to the parent they were embedded
	// under. The store upserts the parent first, then walks this slice.
	NestedEntities []*Processed
}

type BodyFields struct {
	Name               string
	ShortName          string
	OrganizationURL    string
	PersonURL          string
	MeetingURL         string
	PaperURL           string
	LegislativeTermURL string
	AgendaItemURL      string
	ConsultationURL    string
	FileURL            string
	LocationURL        string
	MembershipURL      string
}

type OrganizationFields struct {
	Name           string
	Classification string
	OrgType        string
	StartDate      *time.Time
	EndDate        *time.Time
}

type PersonFields struct {
	GivenName  string
	FamilyName string
	Email      string
}

// MembershipFields carries both sides of the mandatory FK as external ids;
// the store resolves them through the identity cache (§4.C).
type MembershipFields struct {
	PersonExternalID       string
	OrganizationExternalID string
	Role                   string
	VotingRight            bool
	StartDate              *time.Time
	EndDate                *time.Time
}

type MeetingFields struct {
	Name               string
	Start              *time.Time
	End                *time.Time
	State              string
	Cancelled          bool
	LocationExternalID string
}

type PaperFields struct {
	Name      string
	Reference string
	PaperType string
	Date      *time.Time
}

type AgendaItemFields struct {
	MeetingExternalID string
	PaperExternalID   string
	Number            string
	Order             int
	Name              string
	Public            bool
	Result            string
}

type FileFields struct {
	PaperExternalID   string
	MeetingExternalID string
	FileName          string
	MimeType          string
	Size              int64
	AccessURL         string
	DownloadURL       string
}

type LocationFields struct {
	Description string
	Room        string
	PostalCode  string
	Locality    string
	StreetAddr  string
	GeoJSON     []byte
}

type ConsultationFields struct {
	PaperExternalID      string
	MeetingExternalID    string
	AgendaItemExternalID string
	Role                 string
	Authoritative        bool
}

type LegislativeTermFields struct {
	Name      string
	StartDate *time.Time
	EndDate   *time.Time
}
