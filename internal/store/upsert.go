package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"gorm.io/datatypes"

	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
)

// onConflict builds the single-statement insert-on-conflict-do-update
// clause §4.C requires: conflict on external_id, update the given mutable
// columns plus updated_at. GORM's Create scans the RETURNING id back into
// the model whether the row was inserted or already existed.
func onConflict(updateCols ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(append(updateCols, "updated_at")),
	}
}

func marshalJSONMap(m map[string]interface{}) datatypes.JSON {
	if m == nil {
		m = map[string]interface{}{}
	}
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

// resolveFK consults idc first, falling back to a single store lookup on
// cache miss (§4.C AgendaItem policy: "on cache miss, resolve via store
// lookup once, then skip if still unknown").
func (s *gormStore) resolveFK(ctx context.Context, kind oparl.Kind, externalID string, idc *IdentityCache) (uuid.UUID, bool) {
	if externalID == "" {
		return uuid.Nil, false
	}
	if id, ok := idc.Get(kind, externalID); ok {
		return id, true
	}

	var table string
	switch kind {
	case oparl.KindPerson:
		table = "persons"
	case oparl.KindOrganization:
		table = "organizations"
	case oparl.KindMeeting:
		table = "meetings"
	case oparl.KindPaper:
		table = "papers"
	case oparl.KindLocation:
		table = "locations"
	default:
		return uuid.Nil, false
	}

	var id uuid.UUID
	err := s.db.WithContext(ctx).Table(table).Select("id").Where("external_id = ?", externalID).Take(&id).Error
	if err != nil {
		return uuid.Nil, false
	}
	idc.Put(kind, externalID, id)
	return id, true
}

// Upsert dispatches on p.Kind, applying the FK-resolution policy for that
// kind (§4.C). It does not itself write to the skip ledger; the caller
// (EntityPipeline) does, since only it knows the active sync run id.
func (s *gormStore) Upsert(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	switch p.Kind {
	case oparl.KindOrganization:
		return s.upsertOrganization(ctx, bodyID, p, idc)
	case oparl.KindPerson:
		return s.upsertPerson(ctx, bodyID, p, idc)
	case oparl.KindMembership:
		return s.upsertMembership(ctx, p, idc)
	case oparl.KindMeeting:
		return s.upsertMeeting(ctx, bodyID, p, idc)
	case oparl.KindPaper:
		return s.upsertPaper(ctx, bodyID, p, idc)
	case oparl.KindAgendaItem:
		return s.upsertAgendaItem(ctx, p, idc)
	case oparl.KindFile:
		return s.upsertFile(ctx, bodyID, p, idc)
	case oparl.KindLocation:
		return s.upsertLocation(ctx, bodyID, p, idc)
	case oparl.KindConsultation:
		return s.upsertConsultation(ctx, bodyID, p, idc)
	case oparl.KindLegislativeTerm:
		return s.upsertLegislativeTerm(ctx, bodyID, p, idc)
	default:
		return uuid.Nil, true, models.SkipReasonUnknownKind, nil
	}
}

func (s *gormStore) upsertOrganization(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	o := &models.Organization{
		Entity: entityFrom(p), BodyID: bodyID,
		Name: p.Organization.Name, Classification: p.Organization.Classification,
		OrgType: p.Organization.OrgType, StartDate: p.Organization.StartDate, EndDate: p.Organization.EndDate,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "name", "classification", "org_type", "start_date", "end_date",
	)).Create(o).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting organization: %w", err)
	}
	idc.Put(oparl.KindOrganization, p.ExternalID, o.ID)
	return o.ID, false, "", nil
}

func (s *gormStore) upsertPerson(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	person := &models.Person{
		Entity: entityFrom(p), BodyID: bodyID,
		GivenName: p.Person.GivenName, FamilyName: p.Person.FamilyName, Email: p.Person.Email,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "given_name", "family_name", "email",
	)).Create(person).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting person: %w", err)
	}
	idc.Put(oparl.KindPerson, p.ExternalID, person.ID)
	return person.ID, false, "", nil
}

// upsertMembership enforces the mandatory-both-sides FK policy (§3, §4.C):
// a Membership is skipped, never stored with a NULL person_id/organization_id.
func (s *gormStore) upsertMembership(ctx context.Context, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	personID, ok := s.resolveFK(ctx, oparl.KindPerson, p.Membership.PersonExternalID, idc)
	if !ok {
		return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
	}
	orgID, ok := s.resolveFK(ctx, oparl.KindOrganization, p.Membership.OrganizationExternalID, idc)
	if !ok {
		return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
	}

	m := &models.Membership{
		Entity: entityFrom(p), PersonID: personID, OrganizationID: orgID,
		Role: p.Membership.Role, VotingRight: p.Membership.VotingRight,
		StartDate: p.Membership.StartDate, EndDate: p.Membership.EndDate,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "person_id", "organization_id", "role", "voting_right", "start_date", "end_date",
	)).Create(m).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting membership: %w", err)
	}
	idc.Put(oparl.KindMembership, p.ExternalID, m.ID)
	return m.ID, false, "", nil
}

func (s *gormStore) upsertMeeting(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	var locID *uuid.UUID
	if id, ok := s.resolveFK(ctx, oparl.KindLocation, p.Meeting.LocationExternalID, idc); ok {
		locID = &id
	}
	m := &models.Meeting{
		Entity: entityFrom(p), BodyID: bodyID,
		Name: p.Meeting.Name, Start: p.Meeting.Start, End: p.Meeting.End,
		State: p.Meeting.State, Cancelled: p.Meeting.Cancelled, LocationID: locID,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "name", "start", "end", "state", "cancelled", "location_id",
	)).Create(m).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting meeting: %w", err)
	}
	idc.Put(oparl.KindMeeting, p.ExternalID, m.ID)
	return m.ID, false, "", nil
}

func (s *gormStore) upsertPaper(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	paper := &models.Paper{
		Entity: entityFrom(p), BodyID: bodyID,
		Name: p.Paper.Name, Reference: p.Paper.Reference, PaperType: p.Paper.PaperType, Date: p.Paper.Date,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "name", "reference", "paper_type", "date",
	)).Create(paper).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting paper: %w", err)
	}
	idc.Put(oparl.KindPaper, p.ExternalID, paper.ID)
	return paper.ID, false, "", nil
}

// upsertAgendaItem enforces the mandatory meeting FK (§3, §4.C); paper is
// resolved best-effort.
func (s *gormStore) upsertAgendaItem(ctx context.Context, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	meetingID, ok := s.resolveFK(ctx, oparl.KindMeeting, p.AgendaItem.MeetingExternalID, idc)
	if !ok {
		return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
	}
	var paperID *uuid.UUID
	if id, ok := s.resolveFK(ctx, oparl.KindPaper, p.AgendaItem.PaperExternalID, idc); ok {
		paperID = &id
	}

	a := &models.AgendaItem{
		Entity: entityFrom(p), MeetingID: meetingID, PaperID: paperID,
		Number: p.AgendaItem.Number, Order: p.AgendaItem.Order, Name: p.AgendaItem.Name,
		Public: p.AgendaItem.Public, Result: p.AgendaItem.Result,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "meeting_id", "paper_id", "number", "order", "name", "public", "result",
	)).Create(a).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting agenda item: %w", err)
	}
	idc.Put(oparl.KindAgendaItem, p.ExternalID, a.ID)
	return a.ID, false, "", nil
}

// upsertFile implements the no-clobber-with-NULL invariant (§3, §4.C) via a
// raw upsert statement: COALESCE keeps an existing non-null paper_id/
// meeting_id when the incoming observation has none.
func (s *gormStore) upsertFile(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	var paperID, meetingID *uuid.UUID
	if id, ok := s.resolveFK(ctx, oparl.KindPaper, p.File.PaperExternalID, idc); ok {
		paperID = &id
	}
	if id, ok := s.resolveFK(ctx, oparl.KindMeeting, p.File.MeetingExternalID, idc); ok {
		meetingID = &id
	}

	var id uuid.UUID
	row := s.db.WithContext(ctx).Raw(`
		INSERT INTO files (id, created_at, updated_at, external_id, oparl_created, oparl_modified, raw_json,
		                    body_id, paper_id, meeting_id, file_name, mime_type, size, access_url, download_url, text_extraction_status)
		VALUES (gen_random_uuid(), now(), now(), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')
		ON CONFLICT (external_id) DO UPDATE SET
			updated_at = now(),
			oparl_created = EXCLUDED.oparl_created,
			oparl_modified = EXCLUDED.oparl_modified,
			raw_json = EXCLUDED.raw_json,
			body_id = EXCLUDED.body_id,
			paper_id = COALESCE(EXCLUDED.paper_id, files.paper_id),
			meeting_id = COALESCE(EXCLUDED.meeting_id, files.meeting_id),
			file_name = EXCLUDED.file_name,
			mime_type = EXCLUDED.mime_type,
			size = EXCLUDED.size,
			access_url = EXCLUDED.access_url,
			download_url = EXCLUDED.download_url
		RETURNING id
	`, p.ExternalID, p.OparlCreated, p.OparlModified, p.RawJSON, bodyID, nullableUUID(paperID), nullableUUID(meetingID),
		p.File.FileName, p.File.MimeType, p.File.Size, p.File.AccessURL, p.File.DownloadURL,
	).Row()
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting file: %w", err)
	}
	idc.Put(oparl.KindFile, p.ExternalID, id)
	return id, false, "", nil
}

func (s *gormStore) upsertLocation(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	l := &models.Location{
		Entity: entityFrom(p), BodyID: bodyID,
		Description: p.Location.Description, Room: p.Location.Room, PostalCode: p.Location.PostalCode,
		Locality: p.Location.Locality, StreetAddr: p.Location.StreetAddr, GeoJSON: datatypes.JSON(p.Location.GeoJSON),
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "description", "room", "postal_code", "locality", "street_address", "geo_json",
	)).Create(l).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting location: %w", err)
	}
	idc.Put(oparl.KindLocation, p.ExternalID, l.ID)
	return l.ID, false, "", nil
}

// upsertConsultation resolves the paper FK best-effort (NULL permitted);
// the meeting and agenda-item sides are kept as their upstream external ids
// (§9 "cyclic/back-reference graphs").
func (s *gormStore) upsertConsultation(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	var paperID *uuid.UUID
	if id, ok := s.resolveFK(ctx, oparl.KindPaper, p.Consultation.PaperExternalID, idc); ok {
		paperID = &id
	}
	c := &models.Consultation{
		Entity: entityFrom(p), BodyID: bodyID, PaperID: paperID,
		MeetingExternalID: p.Consultation.MeetingExternalID, AgendaItemExternalID: p.Consultation.AgendaItemExternalID,
		Role: p.Consultation.Role, Authoritative: p.Consultation.Authoritative,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "paper_id", "meeting_external_id", "agenda_item_external_id", "role", "authoritative",
	)).Create(c).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting consultation: %w", err)
	}
	idc.Put(oparl.KindConsultation, p.ExternalID, c.ID)
	return c.ID, false, "", nil
}

func (s *gormStore) upsertLegislativeTerm(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	t := &models.LegislativeTerm{
		Entity: entityFrom(p), BodyID: bodyID,
		Name: p.LegislativeTerm.Name, StartDate: p.LegislativeTerm.StartDate, EndDate: p.LegislativeTerm.EndDate,
	}
	if err := s.db.WithContext(ctx).Clauses(onConflict(
		"oparl_created", "oparl_modified", "raw_json", "body_id", "name", "start_date", "end_date",
	)).Create(t).Error; err != nil {
		return uuid.Nil, false, "", fmt.Errorf("upserting legislative term: %w", err)
	}
	idc.Put(oparl.KindLegislativeTerm, p.ExternalID, t.ID)
	return t.ID, false, "", nil
}

// nullableUUID collapses a nil *uuid.UUID to an untyped nil so the SQL
// driver binds it as NULL instead of attempting to dereference it.
func nullableUUID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

func entityFrom(p *processor.Processed) models.Entity {
	return models.Entity{
		ExternalID:    p.ExternalID,
		OparlCreated:  p.OparlCreated,
		OparlModified: p.OparlModified,
		RawJSON:       p.RawJSON,
	}
}

var kindTable = map[oparl.Kind]string{
	oparl.KindOrganization:    "organizations",
	oparl.KindPerson:          "persons",
	oparl.KindMembership:      "memberships",
	oparl.KindMeeting:         "meetings",
	oparl.KindPaper:           "papers",
	oparl.KindAgendaItem:      "agenda_items",
	oparl.KindFile:            "files",
	oparl.KindLocation:        "locations",
	oparl.KindConsultation:    "consultations",
	oparl.KindLegislativeTerm: "legislative_terms",
}

// Delete implements the tombstone contract (§3, §4.C): deletes the row if
// present, reports whether one was removed.
func (s *gormStore) Delete(ctx context.Context, kind oparl.Kind, externalID string) (bool, error) {
	table, ok := kindTable[kind]
	if !ok {
		return false, fmt.Errorf("delete: unsupported kind %q", kind)
	}
	res := s.db.WithContext(ctx).Table(table).Where("external_id = ?", externalID).Delete(nil)
	if res.Error != nil {
		return false, fmt.Errorf("deleting %s: %w", kind, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// BatchExists is the authoritative absence check the client-side
// incremental pipeline uses (§4.C, §9 "identity cache... MUST NOT be used
// for negative claims"). Missing from the returned map means absent.
func (s *gormStore) BatchExists(ctx context.Context, kind oparl.Kind, externalIDs []string) (map[string]*time.Time, error) {
	table, ok := kindTable[kind]
	if !ok {
		return nil, fmt.Errorf("batch_exists: unsupported kind %q", kind)
	}
	if len(externalIDs) == 0 {
		return map[string]*time.Time{}, nil
	}

	var rows []struct {
		ExternalID    string
		OparlModified *time.Time
	}
	if err := s.db.WithContext(ctx).Table(table).
		Select("external_id, oparl_modified").
		Where("external_id IN ?", externalIDs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("batch exists for %s: %w", kind, err)
	}

	out := make(map[string]*time.Time, len(rows))
	for _, r := range rows {
		out[r.ExternalID] = r.OparlModified
	}
	return out, nil
}
