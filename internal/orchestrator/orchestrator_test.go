package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/clock"
	"github.com/mandari/oparlsync/internal/config"
	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/metrics"
	"github.com/mandari/oparlsync/internal/orchestrator"
	"github.com/mandari/oparlsync/internal/pubsub"
	"github.com/mandari/oparlsync/internal/store"
)

func newTestOrchestrator(handler http.Handler) (*orchestrator.Orchestrator, *httptest.Server) {
	srv := httptest.NewServer(handler)
	orch := &orchestrator.Orchestrator{
		Store:   store.NewFake(),
		Events:  pubsub.NopEventSink{},
		Metrics: metrics.Nop{},
		Clock:   clock.Real{},
		Log:     logger.NewNopLogger(),
		Sync:    config.SyncConfig{MaxConcurrentBodies: 4, MinPages: 10, StalePages: 5},
		NewFetcher: func(auth fetcher.Auth) fetcher.Fetcher {
			return fetcher.New(fetcher.Config{MaxConcurrentPerHost: 4, RequestTimeout: 2 * time.Second, MaxAttempts: 1}, nil, logger.NewNopLogger(), auth)
		},
	}
	return orch, srv
}

const emptyEnvelope = `{"data":[],"links":{}}`

func TestSyncSourceHappyPath(t *testing.T) {
	mux := http.NewServeMux()
	orch, srv := newTestOrchestrator(mux)
	defer srv.Close()

	mux.HandleFunc("/system", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"https://x/system","type":"https://schema.oparl.org/1.1/System","body":"` + srv.URL + `/bodies"}`))
	})
	mux.HandleFunc("/bodies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"https://x/body/1","type":"https://schema.oparl.org/1.1/Body","name":"Body One",
			"organization":"` + srv.URL + `/empty","person":"` + srv.URL + `/empty"}],"links":{}}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyEnvelope))
	})

	res, err := orch.SyncSource(context.Background(), srv.URL+"/system", "test", false, "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Bodies, 1)
	assert.Equal(t, "Body One", res.Bodies[0].Name)
	assert.Empty(t, res.Bodies[0].Errors)
}

func TestSyncSourceIsolatesFailingBody(t *testing.T) {
	mux := http.NewServeMux()
	orch, srv := newTestOrchestrator(mux)
	defer srv.Close()

	mux.HandleFunc("/system", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"https://x/system","type":"https://schema.oparl.org/1.1/System","body":"` + srv.URL + `/bodies"}`))
	})
	mux.HandleFunc("/bodies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"https://x/body/bad","type":"https://schema.oparl.org/1.1/Body","name":"Bad Body","organization":"` + srv.URL + `/broken","person":"` + srv.URL + `/empty"},
			{"id":"https://x/body/good","type":"https://schema.oparl.org/1.1/Body","name":"Good Body","organization":"` + srv.URL + `/empty","person":"` + srv.URL + `/empty"}
		],"links":{}}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyEnvelope))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	res, err := orch.SyncSource(context.Background(), srv.URL+"/system", "test", false, "")
	require.NoError(t, err)
	assert.False(t, res.Success, "one failing body must fail the overall source result")
	require.Len(t, res.Bodies, 2)

	var bad, good orchestrator.BodyResult
	for _, b := range res.Bodies {
		if b.Name == "Bad Body" {
			bad = b
		} else {
			good = b
		}
	}
	assert.NotEmpty(t, bad.Errors, "the organization fetch error must surface on the bad body")
	assert.Empty(t, good.Errors, "a sibling body's failure must not contaminate this one")
}

func TestSyncSourceBodyFilter(t *testing.T) {
	mux := http.NewServeMux()
	orch, srv := newTestOrchestrator(mux)
	defer srv.Close()

	mux.HandleFunc("/system", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"https://x/system","type":"https://schema.oparl.org/1.1/System","body":"` + srv.URL + `/bodies"}`))
	})
	mux.HandleFunc("/bodies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"https://x/body/north","type":"https://schema.oparl.org/1.1/Body","name":"North Council","organization":"` + srv.URL + `/empty","person":"` + srv.URL + `/empty"},
			{"id":"https://x/body/south","type":"https://schema.oparl.org/1.1/Body","name":"South Council","organization":"` + srv.URL + `/empty","person":"` + srv.URL + `/empty"}
		],"links":{}}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyEnvelope))
	})

	res, err := orch.SyncSource(context.Background(), srv.URL+"/system", "test", false, "north")
	require.NoError(t, err)
	require.Len(t, res.Bodies, 1)
	assert.Equal(t, "North Council", res.Bodies[0].Name)
}
