// Package pipeline implements the EntityPipeline (§4.D): given a body job's
// context plus (list_url, kind), it consumes pages until exhaustion or an
// early-stop rule fires, translating each item into a store write.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/metrics"
	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
	"github.com/mandari/oparlsync/internal/store"
)

// Mode selects which of the three sync strategies (§4.D) a pipeline run uses.
type Mode int

const (
	ModeFull Mode = iota
	ModeIncrementalServer
	ModeIncrementalClient
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncrementalServer:
		return "incremental_server"
	case ModeIncrementalClient:
		return "incremental_client"
	default:
		return "unknown"
	}
}

// Tunables holds the early-stop constants (§4.D), exposed as config per
// §10.3 but contractually defaulted to MinPages=10/StalePages=5.
type Tunables struct {
	MinPages   int
	StalePages int
}

// DefaultTunables are the contractual defaults.
var DefaultTunables = Tunables{MinPages: 10, StalePages: 5}

// Result is what a single pipeline run reports back to the body job.
type Result struct {
	Kind      oparl.Kind
	Synced    int
	Tombstoned int
	Skipped   int
	Errors    []error
}

// Pipeline drives one (list_url, kind) through fetch → process → upsert.
type Pipeline struct {
	Fetch    fetcher.Fetcher
	Store    store.Store
	Metrics  metrics.Metrics
	Log      logger.Logger
	Tunables Tunables

	// identity is shared by every Run of this Pipeline, so one Pipeline per
	// body job gives one identity cache per body job.
	identity *store.IdentityCache
}

// New builds a Pipeline with default tunables; set p.Tunables after
// construction to override.
func New(f fetcher.Fetcher, s store.Store, m metrics.Metrics, log logger.Logger) *Pipeline {
	return &Pipeline{Fetch: f, Store: s, Metrics: m, Log: log, Tunables: DefaultTunables, identity: store.NewIdentityCache()}
}

// Run executes the pipeline for one kind's list URL under the given mode.
// bodyExternalID is threaded into the processor for cross-referencing
// embedded children; lastSync is the incremental baseline (nil under FULL).
func (p *Pipeline) Run(ctx context.Context, runID uuid.UUID, sourceName string, bodyID uuid.UUID, bodyExternalID string, listURL string, kind oparl.Kind, mode Mode, lastSync *time.Time) Result {
	res := Result{Kind: kind}
	if listURL == "" {
		return res
	}

	idc := p.identity
	if idc == nil {
		idc = store.NewIdentityCache()
	}

	var modifiedSinceParam *time.Time
	if mode == ModeIncrementalServer {
		modifiedSinceParam = lastSync
	}

	it := p.Fetch.FetchList(listURL, modifiedSinceParam)

	page := 0
	staleRun := 0

	for {
		items, ok, err := it.Next(ctx)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("fetching %s page %d: %w", kind, page, err))
			return res
		}
		if !ok {
			return res
		}
		page++

		changed, stop := p.processPage(ctx, runID, sourceName, bodyID, bodyExternalID, kind, mode, items, idc, &res)
		if stop {
			return res
		}

		if mode == ModeIncrementalClient {
			if changed {
				staleRun = 0
			} else {
				staleRun++
			}
			if page >= p.minPages() && staleRun >= p.stalePages() {
				p.Log.Info("early-stop", "kind", kind, "page", page, "stale_run", staleRun)
				return res
			}
		}

		if ctx.Err() != nil {
			res.Errors = append(res.Errors, ctx.Err())
			return res
		}
	}
}

func (p *Pipeline) minPages() int {
	if p.Tunables.MinPages > 0 {
		return p.Tunables.MinPages
	}
	return DefaultTunables.MinPages
}

func (p *Pipeline) stalePages() int {
	if p.Tunables.StalePages > 0 {
		return p.Tunables.StalePages
	}
	return DefaultTunables.StalePages
}

// processPage handles one page of items per the mode's item-state table
// (§4.D). changed reports whether this page had at least one non-stale
// item (for INCREMENTAL-CLIENT's early-stop counter); stop reports a fatal
// per-page error that should end the run.
func (p *Pipeline) processPage(ctx context.Context, runID uuid.UUID, sourceName string, bodyID uuid.UUID, bodyExternalID string, kind oparl.Kind, mode Mode, items []json.RawMessage, idc *store.IdentityCache, res *Result) (changed bool, stop bool) {
	var existing map[string]*time.Time
	if mode == ModeIncrementalClient {
		ids := make([]string, 0, len(items))
		for _, raw := range items {
			id, _, _, _, err := oparl.PeekIdentity(raw)
			if err == nil && id != "" {
				ids = append(ids, id)
			}
		}
		var err error
		existing, err = p.Store.BatchExists(ctx, kind, ids)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("batch_exists for %s: %w", kind, err))
			return false, true
		}
	}

	for _, raw := range items {
		extID, _, modifiedStr, deleted, err := oparl.PeekIdentity(raw)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("peeking identity: %w", err))
			continue
		}

		switch mode {
		case ModeFull:
			changed = true
			if deleted {
				p.delete(ctx, kind, extID, res)
				continue
			}
			p.upsert(ctx, runID, sourceName, bodyID, bodyExternalID, raw, idc, res)

		case ModeIncrementalServer:
			changed = true
			if deleted {
				p.delete(ctx, kind, extID, res)
				continue
			}
			p.upsert(ctx, runID, sourceName, bodyID, bodyExternalID, raw, idc, res)

		case ModeIncrementalClient:
			if deleted {
				changed = true
				p.delete(ctx, kind, extID, res)
				continue
			}
			storedModified, known := existing[extID]
			switch {
			case !known:
				changed = true
				p.upsert(ctx, runID, sourceName, bodyID, bodyExternalID, raw, idc, res)
			case isNewer(modifiedStr, storedModified):
				changed = true
				p.upsert(ctx, runID, sourceName, bodyID, bodyExternalID, raw, idc, res)
			default:
				// unchanged: skip, does not reset the stale counter
			}
		}
	}
	return changed, false
}

func (p *Pipeline) delete(ctx context.Context, kind oparl.Kind, extID string, res *Result) {
	removed, err := p.Store.Delete(ctx, kind, extID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("deleting %s %s: %w", kind, extID, err))
		return
	}
	if removed {
		res.Tombstoned++
	}
}

func (p *Pipeline) upsert(ctx context.Context, runID uuid.UUID, sourceName string, bodyID uuid.UUID, bodyExternalID string, raw json.RawMessage, idc *store.IdentityCache, res *Result) {
	processed, err := processor.Process(raw, bodyExternalID)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("processing item: %w", err))
		return
	}
	if processed == nil {
		extID, _, _, _, _ := oparl.PeekIdentity(raw)
		res.Skipped++
		p.Log.Warn("skipping item of unknown kind", "kind", res.Kind, "external_id", extID)
		if rerr := p.Store.RecordSkip(ctx, runID, res.Kind, extID, models.SkipReasonUnknownKind, ""); rerr != nil {
			p.Log.Warn("recording skip failed", "kind", res.Kind, "external_id", extID, "error", rerr)
		}
		return
	}

	_, skipped, reason, err := p.Store.Upsert(ctx, bodyID, processed, idc)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("upserting %s %s: %w", processed.Kind, processed.ExternalID, err))
		return
	}
	if skipped {
		res.Skipped++
		if rerr := p.Store.RecordSkip(ctx, runID, processed.Kind, processed.ExternalID, reason, ""); rerr != nil {
			p.Log.Warn("recording skip failed", "kind", processed.Kind, "external_id", processed.ExternalID, "error", rerr)
		}
		return
	}
	res.Synced++
	if p.Metrics != nil {
		p.Metrics.RecordEntitySynced(string(processed.Kind), sourceName)
	}

	for _, child := range processed.NestedEntities {
		nested := &Result{Kind: child.Kind}
		p.upsertProcessed(ctx, runID, sourceName, bodyID, child, idc, nested)
		res.Synced += nested.Synced
		res.Skipped += nested.Skipped
		res.Errors = append(res.Errors, nested.Errors...)
	}
}

func (p *Pipeline) upsertProcessed(ctx context.Context, runID uuid.UUID, sourceName string, bodyID uuid.UUID, processed *processor.Processed, idc *store.IdentityCache, res *Result) {
	_, skipped, reason, err := p.Store.Upsert(ctx, bodyID, processed, idc)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("upserting nested %s %s: %w", processed.Kind, processed.ExternalID, err))
		return
	}
	if skipped {
		res.Skipped++
		if rerr := p.Store.RecordSkip(ctx, runID, processed.Kind, processed.ExternalID, reason, ""); rerr != nil {
			p.Log.Warn("recording skip failed", "kind", processed.Kind, "external_id", processed.ExternalID, "error", rerr)
		}
		return
	}
	res.Synced++
	if p.Metrics != nil {
		p.Metrics.RecordEntitySynced(string(processed.Kind), sourceName)
	}
	for _, child := range processed.NestedEntities {
		nested := &Result{Kind: child.Kind}
		p.upsertProcessed(ctx, runID, sourceName, bodyID, child, idc, nested)
		res.Synced += nested.Synced
		res.Skipped += nested.Skipped
		res.Errors = append(res.Errors, nested.Errors...)
	}
}

func isNewer(upstreamModified string, stored *time.Time) bool {
	if stored == nil {
		return true
	}
	t := processor.ParseDatetime(upstreamModified)
	if t == nil {
		return false
	}
	return t.After(*stored)
}
