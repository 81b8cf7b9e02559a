// Package processor turns raw OParl JSON into the engine's typed Processed
// sum type (§4.B). It is a pure, stateless function: no I/O, no database,
// no clock (the raw and parsed creation/modification timestamps both come
// from the document itself).
package processor

import (
	"encoding/json"
	"time"

	"github.com/mandari/oparlsync/internal/oparl"
)

// wireItem is the superset of fields the processor reads directly off any
// raw OParl document before dispatching on Kind. Every field is optional;
// unused ones for a given kind are simply left zero.
type wireItem struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Created  string          `json:"created,omitempty"`
	Modified string          `json:"modified,omitempty"`
	Deleted  bool            `json:"deleted,omitempty"`

	// Body
	Name               string            `json:"name,omitempty"`
	ShortName          string            `json:"shortName,omitempty"`
	Organization       string            `json:"organization,omitempty"`
	Person             string            `json:"person,omitempty"`
	Meeting            string            `json:"meeting,omitempty"`
	Paper              string            `json:"paper,omitempty"`
	LegislativeTerm    string            `json:"legislativeTerm,omitempty"`
	AgendaItem         string            `json:"agendaItem,omitempty"`
	Consultation       string            `json:"consultation,omitempty"`
	File               string            `json:"file,omitempty"`
	Location           json.RawMessage   `json:"location,omitempty"`
	Membership         string            `json:"membership,omitempty"`

	// Organization
	Classification string `json:"classification,omitempty"`
	OrgType        string `json:"organizationType,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`

	// Person
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	Email      string `json:"email,omitempty"`

	// Membership
	VotingRight bool `json:"votingRight,omitempty"`

	// Meeting
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	State     string `json:"meetingState,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`

	// Paper
	Reference string `json:"reference,omitempty"`
	PaperType string `json:"paperType,omitempty"`
	Date      string `json:"date,omitempty"`

	// AgendaItem
	Number string `json:"number,omitempty"`
	Order  int    `json:"order,omitempty"`
	Public bool   `json:"public,omitempty"`
	Result string `json:"result,omitempty"`

	// File
	FileName    string `json:"fileName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	AccessURL   string `json:"accessUrl,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`

	// Location
	Description string          `json:"description,omitempty"`
	Room        string          `json:"room,omitempty"`
	PostalCode  string          `json:"postalCode,omitempty"`
	Locality    string          `json:"locality,omitempty"`
	StreetAddr  string          `json:"streetAddress,omitempty"`
	Geojson     json.RawMessage `json:"geojson,omitempty"`

	// Consultation
	Authoritative bool `json:"authoritative,omitempty"`

	// Nested entities, re-processed recursively (§4.B embedded-child table).
	AgendaItemList     []json.RawMessage `json:"-"`
	FileList           []json.RawMessage `json:"-"`
	ConsultationList   []json.RawMessage `json:"-"`
	MembershipList     []json.RawMessage `json:"-"`
	LegislativeTermList []json.RawMessage `json:"-"`
}

// nestedWireItem re-declares the embed-bearing fields as their real JSON
// shape (arrays of full objects, not URLs) so a second unmarshal pass can
// pull out whichever arrays are present without fighting wireItem's scalar
// string fields above, which some upstreams also populate with a bare URL.
type nestedWireItem struct {
	AgendaItem      []json.RawMessage `json:"agendaItem,omitempty"`
	File            []json.RawMessage `json:"file,omitempty"`
	Consultation    []json.RawMessage `json:"consultation,omitempty"`
	Membership      []json.RawMessage `json:"membership,omitempty"`
	LegislativeTerm []json.RawMessage `json:"legislativeTerm,omitempty"`
	Location        json.RawMessage   `json:"location,omitempty"`
}

// rawToString reads a raw JSON value that is expected to be a plain string
// (e.g. a list-endpoint URL), returning "" if it is absent or not a string
// (some upstreams embed a full Location object under the same key instead).
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ParseDatetime normalizes an ISO-8601 string into *time.Time, returning nil
// on a parse failure rather than erroring (§4.B "never throws on a
// malformed timestamp alone"). Exposed for the EntityPipeline's client-side
// staleness comparison.
func ParseDatetime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Process parses one raw OParl item into a Processed value. parentBodyExternalID
// is the external id of the body this item was fetched for, threaded onto
// every kind that belongs to a body; it has no effect on Source/Body items
// themselves. Returns nil, nil for a tombstone-free item of an unknown kind
// (§4.B "returns null for unknown types").
func Process(raw json.RawMessage, parentBodyExternalID string) (*Processed, error) {
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		// A type mismatch (an embedded array where wireItem holds a URL
		// string) still leaves every other field decoded; nestedWireItem
		// below picks up the arrays. Anything else is malformed JSON.
		if _, isTypeErr := err.(*json.UnmarshalTypeError); !isTypeErr {
			return nil, err
		}
	}

	kind, ok := oparl.KindFromType(w.Type)
	if !ok {
		return nil, nil
	}

	p := &Processed{
		Kind:           kind,
		ExternalID:     w.ID,
		RawJSON:        string(raw),
		OparlCreated:   ParseDatetime(w.Created),
		OparlModified:  ParseDatetime(w.Modified),
		Deleted:        w.Deleted,
		BodyExternalID: parentBodyExternalID,
	}

	if w.Deleted {
		return p, nil
	}

	var nested nestedWireItem
	_ = json.Unmarshal(raw, &nested)

	switch kind {
	case oparl.KindBody:
		p.Body = &BodyFields{
			Name: w.Name, ShortName: w.ShortName,
			OrganizationURL: w.Organization, PersonURL: w.Person,
			MeetingURL: w.Meeting, PaperURL: w.Paper,
			LegislativeTermURL: w.LegislativeTerm, AgendaItemURL: w.AgendaItem,
			ConsultationURL: w.Consultation, FileURL: w.File,
			LocationURL: rawToString(w.Location), MembershipURL: w.Membership,
		}
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.LegislativeTerm, w.ID)...)

	case oparl.KindOrganization:
		p.Organization = &OrganizationFields{
			Name: w.Name, Classification: w.Classification, OrgType: w.OrgType,
			StartDate: ParseDatetime(w.StartDate), EndDate: ParseDatetime(w.EndDate),
		}

	case oparl.KindPerson:
		p.Person = &PersonFields{GivenName: w.GivenName, FamilyName: w.FamilyName, Email: w.Email}
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.Membership, "")...)

	case oparl.KindMembership:
		p.Membership = &MembershipFields{
			PersonExternalID: w.Person, OrganizationExternalID: w.Organization,
			Role: w.Name, VotingRight: w.VotingRight,
			StartDate: ParseDatetime(w.StartDate), EndDate: ParseDatetime(w.EndDate),
		}

	case oparl.KindMeeting:
		locID := ""
		if len(nested.Location) > 0 {
			var loc wireItem
			if err := json.Unmarshal(nested.Location, &loc); err == nil {
				locID = loc.ID
				p.NestedEntities = append(p.NestedEntities, mustProcess(nested.Location, ""))
			}
		} else if len(w.Location) > 0 {
			var loc wireItem
			if err := json.Unmarshal(w.Location, &loc); err == nil {
				locID = loc.ID
			}
		}
		p.Meeting = &MeetingFields{
			Name: w.Name, Start: ParseDatetime(w.Start), End: ParseDatetime(w.End),
			State: w.State, Cancelled: w.Cancelled, LocationExternalID: locID,
		}
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.AgendaItem, w.ID)...)
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.File, "")...)

	case oparl.KindPaper:
		p.Paper = &PaperFields{
			Name: w.Name, Reference: w.Reference, PaperType: w.PaperType, Date: ParseDatetime(w.Date),
		}
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.File, "")...)
		p.NestedEntities = append(p.NestedEntities, processEmbedded(nested.Consultation, w.ID)...)

	case oparl.KindAgendaItem:
		p.AgendaItem = &AgendaItemFields{
			MeetingExternalID: w.Meeting, PaperExternalID: w.Paper,
			Number: w.Number, Order: w.Order, Name: w.Name, Public: w.Public, Result: w.Result,
		}

	case oparl.KindFile:
		p.File = &FileFields{
			PaperExternalID: w.Paper, MeetingExternalID: w.Meeting,
			FileName: w.FileName, MimeType: w.MimeType, Size: w.Size,
			AccessURL: w.AccessURL, DownloadURL: w.DownloadURL,
		}

	case oparl.KindLocation:
		p.Location = &LocationFields{
			Description: w.Description, Room: w.Room, PostalCode: w.PostalCode,
			Locality: w.Locality, StreetAddr: w.StreetAddr, GeoJSON: w.Geojson,
		}

	case oparl.KindConsultation:
		p.Consultation = &ConsultationFields{
			PaperExternalID: w.Paper, MeetingExternalID: w.Meeting,
			AgendaItemExternalID: w.AgendaItem, Role: w.Name, Authoritative: w.Authoritative,
		}

	case oparl.KindLegislativeTerm:
		p.LegislativeTerm = &LegislativeTermFields{
			Name: w.Name, StartDate: ParseDatetime(w.StartDate), EndDate: ParseDatetime(w.EndDate),
		}
	}

	return p, nil
}

// processEmbedded re-processes a list of embedded raw objects, attaching
// parentExternalID (when non-empty) so kinds that need a parent back-
// reference for FK resolution (AgendaItem → meeting, Consultation → paper)
// get it even when the upstream document omits its own reference field.
func processEmbedded(items []json.RawMessage, parentExternalID string) []*Processed {
	out := make([]*Processed, 0, len(items))
	for _, raw := range items {
		child, err := Process(raw, "")
		if err != nil || child == nil {
			continue
		}
		if parentExternalID != "" {
			switch child.Kind {
			case oparl.KindAgendaItem:
				if child.AgendaItem.MeetingExternalID == "" {
					child.AgendaItem.MeetingExternalID = parentExternalID
				}
			case oparl.KindConsultation:
				if child.Consultation.PaperExternalID == "" {
					child.Consultation.PaperExternalID = parentExternalID
				}
			}
		}
		out = append(out, child)
	}
	return out
}

func mustProcess(raw json.RawMessage, parentBodyExternalID string) *Processed {
	p, err := Process(raw, parentBodyExternalID)
	if err != nil || p == nil {
		return &Processed{Kind: oparl.KindUnknown}
	}
	return p
}
