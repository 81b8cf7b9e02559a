// Package oparl defines the wire-level shapes of the OParl protocol (§6.1):
// the list envelope, pagination/links metadata, and the kind-dispatch table
// driven by an entity's `type` URL.
package oparl

import "encoding/json"

// Envelope is the list-document shape every paginated OParl endpoint returns.
type Envelope struct {
	Data       []json.RawMessage `json:"data"`
	Pagination Pagination        `json:"pagination"`
	Links      Links             `json:"links"`
}

// Pagination carries whatever page-count metadata the upstream chooses to
// report; totalPages is advisory only, the engine always follows Links.Next.
type Pagination struct {
	TotalPages int `json:"totalPages,omitempty"`
	PageNumber int `json:"pageNumber,omitempty"`
	ElementsPerPage int `json:"elementsPerPage,omitempty"`
}

// Links carries the cursor for the next page, if any.
type Links struct {
	Next  string `json:"next,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// stub is the minimal shape the engine needs to read off every OParl
// document before it knows which kind it is: identity, type, timestamps,
// and the tombstone flag.
type stub struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Created  string `json:"created,omitempty"`
	Modified string `json:"modified,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// Kind names one of the twelve entity kinds the engine understands.
type Kind string

const (
	KindSource          Kind = "source"
	KindBody            Kind = "body"
	KindOrganization    Kind = "organization"
	KindPerson          Kind = "person"
	KindMembership      Kind = "membership"
	KindMeeting         Kind = "meeting"
	KindPaper           Kind = "paper"
	KindAgendaItem      Kind = "agendaItem"
	KindFile            Kind = "file"
	KindLocation        Kind = "location"
	KindConsultation    Kind = "consultation"
	KindLegislativeTerm Kind = "legislativeTerm"
	KindUnknown         Kind = "unknown"
)

// kindSuffixes maps the last path segment of an OParl `type` URL (case as
// published by the spec, e.g. "https://schema.oparl.org/1.1/AgendaItem") to
// the engine's internal Kind.
var kindSuffixes = map[string]Kind{
	"System":          KindSource,
	"Body":            KindBody,
	"Organization":    KindOrganization,
	"Person":          KindPerson,
	"Membership":      KindMembership,
	"Meeting":         KindMeeting,
	"Paper":           KindPaper,
	"AgendaItem":      KindAgendaItem,
	"File":            KindFile,
	"Location":        KindLocation,
	"Consultation":    KindConsultation,
	"LegislativeTerm": KindLegislativeTerm,
}

// KindFromType dispatches on the trailing path segment of an OParl `type`
// URL. Unknown suffixes return (KindUnknown, false) so callers can log and
// skip rather than guess (§4.B "returns null for unknown types").
func KindFromType(typeURL string) (Kind, bool) {
	suffix := typeURL
	for i := len(typeURL) - 1; i >= 0; i-- {
		if typeURL[i] == '/' {
			suffix = typeURL[i+1:]
			break
		}
	}
	k, ok := kindSuffixes[suffix]
	if !ok {
		return KindUnknown, false
	}
	return k, true
}

// IsTombstone reports whether a raw item is a delete command: `{"id": ...,
// "type": ..., "deleted": true}` (§3, §6.1).
func IsTombstone(raw json.RawMessage) bool {
	var s stub
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s.Deleted
}

// PeekIdentity reads just id/type/modified off a raw item without fully
// decoding it, used by the incremental pipeline's staleness comparisons and
// by the server-filter probe.
func PeekIdentity(raw json.RawMessage) (id, typeURL, modified string, deleted bool, err error) {
	var s stub
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", "", "", false, err
	}
	return s.ID, s.Type, s.Modified, s.Deleted, nil
}
