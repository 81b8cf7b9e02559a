package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/pipeline"
	"github.com/mandari/oparlsync/internal/processor"
)

// runBody executes one body job: determine the incremental baseline, run
// the server-filter probe, then the dependency DAG of entity pipelines
// (§4.E). Pipeline failures are isolated into the returned BodyResult's
// error list; later DAG stages still run.
func (o *Orchestrator) runBody(ctx context.Context, runID, sourceID uuid.UUID, sourceName string, f fetcher.Fetcher, bodyID uuid.UUID, body *processor.Processed, old *models.Body, full bool) BodyResult {
	br := BodyResult{ExternalID: body.ExternalID, Name: body.Body.Name, Counts: map[string]KindCounts{}}

	isFirstSync := old == nil || old.LastSync == nil
	var lastSync *time.Time
	if !full && !isFirstSync {
		lastSync = old.LastSync
	}

	mode := pipeline.ModeFull
	if lastSync != nil {
		probeOK := pipeline.ProbeServerFilter(ctx, f, body.Body.PaperURL, body.Body.MeetingURL, *lastSync)
		if probeOK {
			mode = pipeline.ModeIncrementalServer
		} else {
			mode = pipeline.ModeIncrementalClient
		}
	}
	br.Mode = mode.String()

	p := pipeline.New(f, o.Store, o.Metrics, o.Log.With("run_id", runID, "source", sourceName, "body", body.ExternalID))
	p.Tunables = pipeline.Tunables{MinPages: o.Sync.MinPages, StalePages: o.Sync.StalePages}

	run := func(listURL string, kind oparl.Kind) pipeline.Result {
		return p.Run(ctx, runID, sourceName, bodyID, body.ExternalID, listURL, kind, mode, lastSync)
	}

	record := func(res pipeline.Result) {
		br.Counts[string(res.Kind)] = KindCounts{Synced: res.Synced, Tombstoned: res.Tombstoned, Skipped: res.Skipped}
		for _, e := range res.Errors {
			br.Errors = append(br.Errors, e.Error())
		}
	}

	var mu sync.Mutex
	recordSafe := func(res pipeline.Result) {
		mu.Lock()
		defer mu.Unlock()
		record(res)
	}

	// Stage 1: Organizations ∥ Persons
	var g1 errgroup.Group
	g1.Go(func() error { recordSafe(run(body.Body.OrganizationURL, oparl.KindOrganization)); return nil })
	g1.Go(func() error { recordSafe(run(body.Body.PersonURL, oparl.KindPerson)); return nil })
	_ = g1.Wait()

	// Stage 2: Memberships (serial; depends on both Organizations and Persons)
	recordSafe(run(body.Body.MembershipURL, oparl.KindMembership))

	// Stage 3: Meetings ∥ Papers
	var g2 errgroup.Group
	g2.Go(func() error { recordSafe(run(body.Body.MeetingURL, oparl.KindMeeting)); return nil })
	g2.Go(func() error { recordSafe(run(body.Body.PaperURL, oparl.KindPaper)); return nil })
	_ = g2.Wait()

	// Stage 4: Locations ∥ AgendaItems ∥ Files ∥ Consultations
	var g3 errgroup.Group
	g3.Go(func() error { recordSafe(run(body.Body.LocationURL, oparl.KindLocation)); return nil })
	g3.Go(func() error { recordSafe(run(body.Body.AgendaItemURL, oparl.KindAgendaItem)); return nil })
	g3.Go(func() error { recordSafe(run(body.Body.FileURL, oparl.KindFile)); return nil })
	g3.Go(func() error { recordSafe(run(body.Body.ConsultationURL, oparl.KindConsultation)); return nil })
	_ = g3.Wait()

	// LegislativeTerms are typically embedded in Body but may also have a
	// standalone list URL; sync it alongside the rest for completeness.
	if body.Body.LegislativeTermURL != "" {
		recordSafe(run(body.Body.LegislativeTermURL, oparl.KindLegislativeTerm))
	}

	return br
}
