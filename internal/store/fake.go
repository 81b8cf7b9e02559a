package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
)

// Fake is a map-backed Store honouring the same interface as the GORM
// implementation (§10.5), so EntityPipeline/Orchestrator logic can be
// tested without a live Postgres — the host repo's own
// repository-interface-over-concrete-implementation pattern, with a test
// double plugged into the interface instead.
type Fake struct {
	mu sync.Mutex

	sources map[uuid.UUID]*models.Source
	bodies  map[uuid.UUID]*models.Body

	rows map[oparl.Kind]map[string]*fakeRow

	runs  map[uuid.UUID]*models.SyncRun
	skips []*models.SyncSkip
}

type fakeRow struct {
	id            uuid.UUID
	oparlModified *time.Time
	personID      uuid.UUID
	organizationID uuid.UUID
	meetingID     uuid.UUID
	paperID       *uuid.UUID
}

// NewFake builds an empty Fake store.
func NewFake() *Fake {
	return &Fake{
		sources: map[uuid.UUID]*models.Source{},
		bodies:  map[uuid.UUID]*models.Body{},
		rows:    map[oparl.Kind]map[string]*fakeRow{},
		runs:    map[uuid.UUID]*models.SyncRun{},
	}
}

func (f *Fake) table(kind oparl.Kind) map[string]*fakeRow {
	t, ok := f.rows[kind]
	if !ok {
		t = map[string]*fakeRow{}
		f.rows[kind] = t
	}
	return t
}

func (f *Fake) UpsertSource(ctx context.Context, url, name string, rawSystem []byte) (*models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sources {
		if s.URL == url {
			s.Name = name
			return s, nil
		}
	}
	s := &models.Source{ID: uuid.Must(uuid.NewRandom()), URL: url, Name: name}
	f.sources[s.ID] = s
	return s, nil
}

func (f *Fake) GetSourceByURL(ctx context.Context, url string) (*models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sources {
		if s.URL == url {
			return s, nil
		}
	}
	return nil, fmt.Errorf("source not found: %s", url)
}

func (f *Fake) ListSources(ctx context.Context) ([]*models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Source, 0, len(f.sources))
	for _, s := range f.sources {
		out = append(out, s)
	}
	return out, nil
}

func (f *Fake) UpdateSourceSyncTime(ctx context.Context, sourceID uuid.UUID, full bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[sourceID]
	if !ok {
		return fmt.Errorf("source not found: %s", sourceID)
	}
	s.LastSync = &at
	if full {
		s.LastFullSync = &at
	}
	return nil
}

func (f *Fake) UpsertBody(ctx context.Context, sourceID uuid.UUID, p *processor.Processed) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bodies {
		if b.ExternalID == p.ExternalID {
			b.Name = p.Body.Name
			return b.ID, nil
		}
	}
	b := &models.Body{ID: uuid.Must(uuid.NewRandom()), SourceID: sourceID, ExternalID: p.ExternalID, Name: p.Body.Name}
	f.bodies[b.ID] = b
	return b.ID, nil
}

func (f *Fake) ListBodiesForSource(ctx context.Context, sourceID uuid.UUID) ([]*models.Body, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Body
	for _, b := range f.bodies {
		if b.SourceID == sourceID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *Fake) UpdateBodySyncTime(ctx context.Context, bodyID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bodies[bodyID]
	if !ok {
		return fmt.Errorf("body not found: %s", bodyID)
	}
	b.LastSync = &at
	return nil
}

func (f *Fake) Upsert(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (uuid.UUID, bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch p.Kind {
	case oparl.KindMembership:
		personID, ok := f.resolveFake(oparl.KindPerson, p.Membership.PersonExternalID, idc)
		if !ok {
			return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
		}
		orgID, ok := f.resolveFake(oparl.KindOrganization, p.Membership.OrganizationExternalID, idc)
		if !ok {
			return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
		}
		row := f.upsertRow(p)
		row.personID, row.organizationID = personID, orgID
		idc.Put(p.Kind, p.ExternalID, row.id)
		return row.id, false, "", nil

	case oparl.KindAgendaItem:
		meetingID, ok := f.resolveFake(oparl.KindMeeting, p.AgendaItem.MeetingExternalID, idc)
		if !ok {
			return uuid.Nil, true, models.SkipReasonFKUnresolved, nil
		}
		row := f.upsertRow(p)
		row.meetingID = meetingID
		if paperID, ok := f.resolveFake(oparl.KindPaper, p.AgendaItem.PaperExternalID, idc); ok {
			row.paperID = &paperID
		}
		idc.Put(p.Kind, p.ExternalID, row.id)
		return row.id, false, "", nil

	case oparl.KindFile:
		row := f.upsertRow(p)
		if paperID, ok := f.resolveFake(oparl.KindPaper, p.File.PaperExternalID, idc); ok {
			row.paperID = &paperID
		}
		idc.Put(p.Kind, p.ExternalID, row.id)
		return row.id, false, "", nil

	case oparl.KindConsultation, oparl.KindOrganization, oparl.KindPerson, oparl.KindMeeting,
		oparl.KindPaper, oparl.KindLocation, oparl.KindLegislativeTerm:
		row := f.upsertRow(p)
		idc.Put(p.Kind, p.ExternalID, row.id)
		return row.id, false, "", nil

	default:
		return uuid.Nil, true, models.SkipReasonUnknownKind, nil
	}
}

func (f *Fake) upsertRow(p *processor.Processed) *fakeRow {
	t := f.table(p.Kind)
	row, ok := t[p.ExternalID]
	if !ok {
		row = &fakeRow{id: uuid.Must(uuid.NewRandom())}
		t[p.ExternalID] = row
	}
	row.oparlModified = p.OparlModified
	return row
}

func (f *Fake) resolveFake(kind oparl.Kind, externalID string, idc *IdentityCache) (uuid.UUID, bool) {
	if externalID == "" {
		return uuid.Nil, false
	}
	if id, ok := idc.Get(kind, externalID); ok {
		return id, true
	}
	if row, ok := f.table(kind)[externalID]; ok {
		idc.Put(kind, externalID, row.id)
		return row.id, true
	}
	return uuid.Nil, false
}

func (f *Fake) Delete(ctx context.Context, kind oparl.Kind, externalID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(kind)
	if _, ok := t[externalID]; !ok {
		return false, nil
	}
	delete(t, externalID)
	return true, nil
}

func (f *Fake) BatchExists(ctx context.Context, kind oparl.Kind, externalIDs []string) (map[string]*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(kind)
	out := map[string]*time.Time{}
	for _, id := range externalIDs {
		if row, ok := t[id]; ok {
			out[id] = row.oparlModified
		}
	}
	return out, nil
}

func (f *Fake) CreateSyncRun(ctx context.Context, sourceID uuid.UUID, full bool) (*models.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := &models.SyncRun{ID: uuid.Must(uuid.NewRandom()), SourceID: sourceID, Full: full, Status: models.SyncRunRunning, StartedAt: time.Now()}
	f.runs[run.ID] = run
	return run, nil
}

func (f *Fake) FinishSyncRun(ctx context.Context, runID uuid.UUID, status models.SyncRunStatus, counts, errs map[string]interface{}, httpRequests, cacheHits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return fmt.Errorf("sync run not found: %s", runID)
	}
	now := time.Now()
	run.Status = status
	run.EndedAt = &now
	run.HTTPRequests = httpRequests
	run.CacheHits = cacheHits
	return nil
}

func (f *Fake) LatestSyncRun(ctx context.Context, sourceID uuid.UUID) (*models.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.SyncRun
	for _, r := range f.runs {
		if r.SourceID != sourceID {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no sync run for source: %s", sourceID)
	}
	return latest, nil
}

func (f *Fake) RecordSkip(ctx context.Context, runID uuid.UUID, kind oparl.Kind, externalID, reason, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skips = append(f.skips, &models.SyncSkip{
		ID: uuid.Must(uuid.NewRandom()), SyncRunID: runID, Kind: string(kind),
		ExternalID: externalID, Reason: reason, Detail: detail,
	})
	return nil
}

func (f *Fake) KindCounts(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for kind, t := range f.rows {
		out[string(kind)] = int64(len(t))
	}
	return out, nil
}

// Skips exposes recorded skips for test assertions.
func (f *Fake) Skips() []*models.SyncSkip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.SyncSkip(nil), f.skips...)
}

var _ Store = (*Fake)(nil)
