// Package orchestrator implements the top-level sync driver (§4.E): URL
// auto-detection, the source-level job that fans out over bodies with
// per-job error isolation, and the body-level job that runs the dependency
// DAG of entity pipelines.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mandari/oparlsync/internal/clock"
	"github.com/mandari/oparlsync/internal/config"
	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/metrics"
	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
	"github.com/mandari/oparlsync/internal/pubsub"
	"github.com/mandari/oparlsync/internal/store"
)

// Orchestrator drives source and body jobs. One instance is shared across
// every registered source; each source job builds its own Fetcher so hosts
// get independent concurrency budgets (§5).
type Orchestrator struct {
	Store  store.Store
	Events pubsub.EventSink
	Metrics metrics.Metrics
	Clock  clock.Clock
	Log    logger.Logger
	Sync   config.SyncConfig

	// NewFetcher builds a Fetcher scoped to one source's host budget and
	// credentials; the container supplies this so orchestrator stays free of
	// cache/HTTP wiring concerns.
	NewFetcher func(auth fetcher.Auth) fetcher.Fetcher
}

// SyncSource runs one source-level job end to end (§4.E). bodyFilter, when
// non-empty, restricts the run to bodies whose external id or name contains
// it, compared case-insensitively (§12.5).
func (o *Orchestrator) SyncSource(ctx context.Context, sourceURL, name string, full bool, bodyFilter string) (SourceResult, error) {
	start := time.Now()
	result := SourceResult{SourceURL: sourceURL, SourceName: name}

	existing, err := o.Store.GetSourceByURL(ctx, sourceURL)
	var auth fetcher.Auth
	if err == nil && existing != nil {
		auth = fetcher.Auth{Type: existing.AuthType, Username: existing.AuthUsername, Secret: existing.AuthSecret}
	}
	f := o.NewFetcher(auth)

	bodyDocs, err := detectBodies(ctx, f, sourceURL)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result, err
	}

	rawSystem, _ := f.FetchObject(ctx, sourceURL)
	src, err := o.Store.UpsertSource(ctx, sourceURL, name, rawSystem)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result, err
	}
	if src.Name != "" {
		result.SourceName = src.Name
	}

	oldBodies, err := o.Store.ListBodiesForSource(ctx, src.ID)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	oldByExternalID := make(map[string]*models.Body, len(oldBodies))
	for _, b := range oldBodies {
		oldByExternalID[b.ExternalID] = b
	}

	run, err := o.Store.CreateSyncRun(ctx, src.ID, full)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Duration = time.Since(start)
		return result, err
	}
	o.Events.SyncStarted(ctx, run.ID, src.ID, full)

	type bodyJob struct {
		processed *processor.Processed
		bodyID    uuid.UUID
		old       *models.Body
	}
	var jobs []bodyJob
	for _, raw := range bodyDocs {
		processed, err := processor.Process(raw, "")
		if err != nil || processed == nil || processed.Kind != oparl.KindBody {
			continue
		}
		if bodyFilter != "" && !containsFold(processed.ExternalID, bodyFilter) && !containsFold(processed.Body.Name, bodyFilter) {
			continue
		}
		bodyID, err := o.Store.UpsertBody(ctx, src.ID, processed)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("upserting body %s: %v", processed.ExternalID, err))
			continue
		}
		jobs = append(jobs, bodyJob{processed: processed, bodyID: bodyID, old: oldByExternalID[processed.ExternalID]})
	}

	concurrency := o.Sync.MaxConcurrentBodies
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	var mu sync.Mutex
	bodyResults := make([]BodyResult, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		i, job := i, job
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			br := o.runBody(ctx, run.ID, src.ID, result.SourceName, f, job.bodyID, job.processed, job.old, full)
			mu.Lock()
			bodyResults[i] = br
			mu.Unlock()

			if uerr := o.Store.UpdateBodySyncTime(ctx, job.bodyID, time.Now()); uerr != nil {
				o.Log.Warn("updating body sync time failed", "body", job.processed.ExternalID, "error", uerr)
			}
			o.Events.BodyCompleted(ctx, run.ID, src.ID, job.bodyID, br)
		}()
	}
	wg.Wait()

	result.Bodies = bodyResults
	anyErr := false
	for _, br := range bodyResults {
		if len(br.Errors) > 0 {
			anyErr = true
			result.Errors = append(result.Errors, br.Errors...)
		}
	}
	if len(result.Errors) > 0 {
		anyErr = true
	}
	result.Success = !anyErr

	now := time.Now()
	if uerr := o.Store.UpdateSourceSyncTime(ctx, src.ID, full, now); uerr != nil {
		o.Log.Warn("updating source sync time failed", "source", sourceURL, "error", uerr)
	}

	stats := f.Stats()
	result.HTTPStats = HTTPStats{HTTPRequests: stats.HTTPRequests, CacheHits: stats.CacheHits}
	result.Duration = time.Since(start)

	status := models.SyncRunSuccess
	if !result.Success {
		status = models.SyncRunPartial
	}
	countsMap := map[string]interface{}{}
	for _, br := range result.Bodies {
		countsMap[br.ExternalID] = br.Counts
	}
	errsMap := map[string]interface{}{"errors": result.Errors}
	if ferr := o.Store.FinishSyncRun(ctx, run.ID, status, countsMap, errsMap, int(stats.HTTPRequests), int(stats.CacheHits)); ferr != nil {
		o.Log.Warn("finishing sync run failed", "run_id", run.ID, "error", ferr)
	}

	if result.Success {
		o.Events.SyncCompleted(ctx, run.ID, src.ID, result)
	} else {
		o.Events.SyncFailed(ctx, run.ID, src.ID, fmt.Errorf("%d error(s) during sync", len(result.Errors)))
	}

	return result, nil
}

// SyncAll runs every registered source. Sequential forces one-at-a-time
// execution (§6.4 `sync-all --sequential`); otherwise sources run in
// parallel (§5 "N parallel source jobs").
func (o *Orchestrator) SyncAll(ctx context.Context, full bool, sequential bool) ([]SourceResult, error) {
	sources, err := o.Store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	results := make([]SourceResult, len(sources))
	if sequential {
		for i, s := range sources {
			r, _ := o.SyncSource(ctx, s.URL, s.Name, full, "")
			results[i] = r
		}
		return results, nil
	}

	var g errgroup.Group
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			r, _ := o.SyncSource(ctx, s.URL, s.Name, full, "")
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
