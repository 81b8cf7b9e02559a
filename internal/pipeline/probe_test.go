package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mandari/oparlsync/internal/pipeline"
)

func TestProbeServerFilterPassesWhenAllItemsAfterLastSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"https://x/paper/1","type":"https://schema.oparl.org/1.1/Paper","modified":"2026-06-01T00:00:00Z"}],"links":{}}`))
	}))
	defer srv.Close()

	lastSync := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := pipeline.ProbeServerFilter(context.Background(), newTestFetcher(), srv.URL, "", lastSync)
	assert.True(t, ok)
}

func TestProbeServerFilterFailsWhenAStaleItemLeaksThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"https://x/paper/1","type":"https://schema.oparl.org/1.1/Paper","modified":"2020-01-01T00:00:00Z"}],"links":{}}`))
	}))
	defer srv.Close()

	lastSync := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := pipeline.ProbeServerFilter(context.Background(), newTestFetcher(), srv.URL, "", lastSync)
	assert.False(t, ok)
}

func TestProbeServerFilterFallsBackToMeetingList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"links":{}}`))
	}))
	defer srv.Close()

	lastSync := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := pipeline.ProbeServerFilter(context.Background(), newTestFetcher(), "", srv.URL, lastSync)
	assert.True(t, ok, "an empty result page is treated as server-side filtering having worked")
}

func TestProbeServerFilterNoURLsAvailable(t *testing.T) {
	ok := pipeline.ProbeServerFilter(context.Background(), newTestFetcher(), "", "", time.Now())
	assert.False(t, ok)
}
