package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/metrics"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/pipeline"
	"github.com/mandari/oparlsync/internal/store"
)

func newTestFetcher() fetcher.Fetcher {
	return fetcher.New(fetcher.Config{MaxConcurrentPerHost: 4, RequestTimeout: 5 * time.Second}, nil, logger.NewNopLogger(), fetcher.Auth{})
}

func newTestPipeline(f fetcher.Fetcher, s store.Store) *pipeline.Pipeline {
	return pipeline.New(f, s, metrics.Nop{}, logger.NewNopLogger())
}

func TestPipelineRunFullModeUpsertsAllItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"https://x/org/1","type":"https://schema.oparl.org/1.1/Organization","name":"Council"},
			{"id":"https://x/org/2","type":"https://schema.oparl.org/1.1/Organization","name":"Committee"}
		],"links":{}}`))
	}))
	defer srv.Close()

	s := store.NewFake()
	p := newTestPipeline(newTestFetcher(), s)

	res := p.Run(context.Background(), uuid.New(), "src", uuid.New(), "body-1", srv.URL, oparl.KindOrganization, pipeline.ModeFull, nil)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 0, res.Tombstoned)
}

func TestPipelineRunFullModeDeletesTombstones(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"https://x/org/1","type":"https://schema.oparl.org/1.1/Organization","deleted":true}
		],"links":{}}`))
	}))
	defer srv.Close()

	s := store.NewFake()
	p := newTestPipeline(newTestFetcher(), s)

	res := p.Run(context.Background(), uuid.New(), "src", uuid.New(), "body-1", srv.URL, oparl.KindOrganization, pipeline.ModeFull, nil)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 0, res.Tombstoned, "delete of a row that was never upserted is a no-op")
}

func TestPipelineIncrementalClientSkipsUnchangedAndEarlyStops(t *testing.T) {
	pageCount := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageCount++
		next := ""
		if pageCount < 30 {
			next = srv.URL + "/p" + uuid.NewString()
		}
		w.Write([]byte(`{"data":[{"id":"https://x/org/stale","type":"https://schema.oparl.org/1.1/Organization","name":"Stale","modified":"2020-01-01T00:00:00Z"}],"links":{"next":"` + next + `"}}`))
	}))
	defer srv.Close()

	s := store.NewFake()
	lastSync := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	p := newTestPipeline(newTestFetcher(), s)
	p.Tunables = pipeline.Tunables{MinPages: 2, StalePages: 2}

	res := p.Run(context.Background(), uuid.New(), "src", uuid.New(), "body-1", srv.URL, oparl.KindOrganization, pipeline.ModeIncrementalClient, &lastSync)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Synced, "first occurrence is new, upserted once")
	require.LessOrEqual(t, pageCount, 5, "early-stop must halt well before the 30-page limit")
}

func TestPipelineSkipsMembershipWithUnresolvedFK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"https://x/membership/1","type":"https://schema.oparl.org/1.1/Membership","person":"https://x/person/missing","organization":"https://x/org/missing"}
		],"links":{}}`))
	}))
	defer srv.Close()

	s := store.NewFake()
	p := newTestPipeline(newTestFetcher(), s)

	runID := uuid.New()
	res := p.Run(context.Background(), runID, "src", uuid.New(), "body-1", srv.URL, oparl.KindMembership, pipeline.ModeFull, nil)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, res.Synced)
	assert.Equal(t, 1, res.Skipped)

	skips := s.Skips()
	require.Len(t, skips, 1)
	assert.Equal(t, runID, skips[0].SyncRunID)
	assert.Equal(t, "fk_unresolved", skips[0].Reason)
}

func TestPipelineEmptyURLIsNoop(t *testing.T) {
	s := store.NewFake()
	p := newTestPipeline(newTestFetcher(), s)
	res := p.Run(context.Background(), uuid.New(), "src", uuid.New(), "body-1", "", oparl.KindOrganization, pipeline.ModeFull, nil)
	assert.Equal(t, 0, res.Synced)
	assert.Empty(t, res.Errors)
}
