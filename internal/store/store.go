// Package store translates Processed entities into database writes,
// preserving the invariants in §3/§4.C: atomic upsert-by-external-id,
// FK resolution through the identity cache with per-kind policies, the
// no-clobber-with-NULL rule for Files, and tombstone deletes.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mandari/oparlsync/internal/errors"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
)

// Store is the capability the EntityPipeline and Orchestrator depend on.
// A GORM implementation (gormStore) backs production use; Fake backs tests
// (§10.5).
type Store interface {
	UpsertSource(ctx context.Context, url, name string, rawSystem []byte) (*models.Source, error)
	GetSourceByURL(ctx context.Context, url string) (*models.Source, error)
	ListSources(ctx context.Context) ([]*models.Source, error)
	UpdateSourceSyncTime(ctx context.Context, sourceID uuid.UUID, full bool, at time.Time) error

	UpsertBody(ctx context.Context, sourceID uuid.UUID, p *processor.Processed) (uuid.UUID, error)
	ListBodiesForSource(ctx context.Context, sourceID uuid.UUID) ([]*models.Body, error)
	UpdateBodySyncTime(ctx context.Context, bodyID uuid.UUID, at time.Time) error

	// Upsert dispatches on p.Kind, resolving FKs via idc per the policies in
	// §4.C. skipped is true when a mandatory FK could not be resolved or p.Kind
	// is not one this method writes (reason says which); the
	// caller is responsible for recording the skip to the ledger via
	// RecordSkip (EntityPipeline does this, since it alone knows the run id).
	Upsert(ctx context.Context, bodyID uuid.UUID, p *processor.Processed, idc *IdentityCache) (surrogateID uuid.UUID, skipped bool, skipReason string, err error)

	Delete(ctx context.Context, kind oparl.Kind, externalID string) (bool, error)
	BatchExists(ctx context.Context, kind oparl.Kind, externalIDs []string) (map[string]*time.Time, error)

	CreateSyncRun(ctx context.Context, sourceID uuid.UUID, full bool) (*models.SyncRun, error)
	FinishSyncRun(ctx context.Context, runID uuid.UUID, status models.SyncRunStatus, counts, errs map[string]interface{}, httpRequests, cacheHits int) error
	LatestSyncRun(ctx context.Context, sourceID uuid.UUID) (*models.SyncRun, error)
	RecordSkip(ctx context.Context, runID uuid.UUID, kind oparl.Kind, externalID, reason, detail string) error

	KindCounts(ctx context.Context) (map[string]int64, error)
}

type gormStore struct {
	db  *gorm.DB
	log logger.Logger
}

// NewGormStore builds the production Store backed by Postgres/GORM.
func NewGormStore(db *gorm.DB, log logger.Logger) Store {
	return &gormStore{db: db, log: log}
}

// VerifySchema is the sentinel-table check the engine runs at startup
// (§6.3): it confirms the migration actor has already created the schema
// and refuses to proceed otherwise.
func VerifySchema(ctx context.Context, db *gorm.DB) error {
	if !db.WithContext(ctx).Migrator().HasTable("sources") {
		return errors.ErrSchemaMissing("sources")
	}
	return nil
}

func (s *gormStore) UpsertSource(ctx context.Context, url, name string, rawSystem []byte) (*models.Source, error) {
	src := &models.Source{URL: url, Name: name, RawSystem: datatypes.JSON(rawSystem)}
	err := s.db.WithContext(ctx).Clauses(onConflict("url", "name", "raw_system")).Create(src).Error
	if err != nil {
		return nil, fmt.Errorf("upserting source: %w", err)
	}
	return src, nil
}

func (s *gormStore) GetSourceByURL(ctx context.Context, url string) (*models.Source, error) {
	var src models.Source
	if err := s.db.WithContext(ctx).First(&src, "url = ?", url).Error; err != nil {
		return nil, fmt.Errorf("getting source by url: %w", err)
	}
	return &src, nil
}

func (s *gormStore) ListSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := s.db.WithContext(ctx).Order("name").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

func (s *gormStore) UpdateSourceSyncTime(ctx context.Context, sourceID uuid.UUID, full bool, at time.Time) error {
	updates := map[string]interface{}{"last_sync": at}
	if full {
		updates["last_full_sync"] = at
	}
	if err := s.db.WithContext(ctx).Model(&models.Source{}).Where("id = ?", sourceID).Updates(updates).Error; err != nil {
		return fmt.Errorf("updating source sync time: %w", err)
	}
	return nil
}

func (s *gormStore) UpsertBody(ctx context.Context, sourceID uuid.UUID, p *processor.Processed) (uuid.UUID, error) {
	b := &models.Body{
		SourceID:           sourceID,
		ExternalID:         p.ExternalID,
		Name:               p.Body.Name,
		ShortName:          p.Body.ShortName,
		OrganizationURL:    p.Body.OrganizationURL,
		PersonURL:          p.Body.PersonURL,
		MeetingURL:         p.Body.MeetingURL,
		PaperURL:           p.Body.PaperURL,
		LegislativeTermURL: p.Body.LegislativeTermURL,
		AgendaItemURL:      p.Body.AgendaItemURL,
		ConsultationURL:    p.Body.ConsultationURL,
		FileURL:            p.Body.FileURL,
		LocationURL:        p.Body.LocationURL,
		MembershipURL:      p.Body.MembershipURL,
		OparlCreated:       p.OparlCreated,
		OparlModified:      p.OparlModified,
		RawJSON:            p.RawJSON,
	}
	err := s.db.WithContext(ctx).Clauses(onConflict("external_id",
		"source_id", "name", "short_name", "organization_url", "person_url", "meeting_url",
		"paper_url", "legislative_term_url", "agenda_item_url", "consultation_url",
		"file_url", "location_url", "membership_url", "oparl_created", "oparl_modified", "raw_json",
	)).Create(b).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting body: %w", err)
	}
	return b.ID, nil
}

func (s *gormStore) ListBodiesForSource(ctx context.Context, sourceID uuid.UUID) ([]*models.Body, error) {
	var bodies []*models.Body
	if err := s.db.WithContext(ctx).Where("source_id = ?", sourceID).Find(&bodies).Error; err != nil {
		return nil, fmt.Errorf("listing bodies for source: %w", err)
	}
	return bodies, nil
}

func (s *gormStore) UpdateBodySyncTime(ctx context.Context, bodyID uuid.UUID, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(&models.Body{}).Where("id = ?", bodyID).Update("last_sync", at).Error; err != nil {
		return fmt.Errorf("updating body sync time: %w", err)
	}
	return nil
}

func (s *gormStore) CreateSyncRun(ctx context.Context, sourceID uuid.UUID, full bool) (*models.SyncRun, error) {
	run := &models.SyncRun{
		SourceID:  sourceID,
		Full:      full,
		Status:    models.SyncRunRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("creating sync run: %w", err)
	}
	return run, nil
}

func (s *gormStore) FinishSyncRun(ctx context.Context, runID uuid.UUID, status models.SyncRunStatus, counts, errs map[string]interface{}, httpRequests, cacheHits int) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"ended_at":      now,
		"counts":        marshalJSONMap(counts),
		"errors":        marshalJSONMap(errs),
		"http_requests": httpRequests,
		"cache_hits":    cacheHits,
	}
	if err := s.db.WithContext(ctx).Model(&models.SyncRun{}).Where("id = ?", runID).Updates(updates).Error; err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	return nil
}

func (s *gormStore) LatestSyncRun(ctx context.Context, sourceID uuid.UUID) (*models.SyncRun, error) {
	var run models.SyncRun
	if err := s.db.WithContext(ctx).Where("source_id = ?", sourceID).Order("created_at DESC").First(&run).Error; err != nil {
		return nil, fmt.Errorf("getting latest sync run: %w", err)
	}
	return &run, nil
}

func (s *gormStore) RecordSkip(ctx context.Context, runID uuid.UUID, kind oparl.Kind, externalID, reason, detail string) error {
	skip := &models.SyncSkip{
		SyncRunID:  runID,
		Kind:       string(kind),
		ExternalID: externalID,
		Reason:     reason,
		Detail:     detail,
	}
	if err := s.db.WithContext(ctx).Create(skip).Error; err != nil {
		return fmt.Errorf("recording skip: %w", err)
	}
	return nil
}

func (s *gormStore) KindCounts(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	tables := map[string]interface{}{
		"bodies": &models.Body{}, "organizations": &models.Organization{}, "persons": &models.Person{},
		"memberships": &models.Membership{}, "meetings": &models.Meeting{}, "papers": &models.Paper{},
		"agenda_items": &models.AgendaItem{}, "files": &models.File{}, "locations": &models.Location{},
		"consultations": &models.Consultation{}, "legislative_terms": &models.LegislativeTerm{},
	}
	for name, model := range tables {
		var n int64
		if err := s.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
