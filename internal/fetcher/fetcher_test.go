package fetcher_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
)

func newFetcher() fetcher.Fetcher {
	cfg := fetcher.Config{MaxConcurrentPerHost: 4, RequestTimeout: 5 * time.Second, MaxAttempts: 3}
	return fetcher.New(cfg, nil, logger.NewNopLogger(), fetcher.Auth{})
}

func TestFetchObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"https://x/1","type":"https://schema.oparl.org/1.1/Body"}`))
	}))
	defer srv.Close()

	f := newFetcher()
	raw, err := f.FetchObject(context.Background(), srv.URL)
	require.NoError(t, err)

	var decoded struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "https://x/1", decoded.ID)
	assert.Equal(t, int64(1), f.Stats().HTTPRequests)
}

func TestFetchObjectPermanentErrorOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher()
	_, err := f.FetchObject(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchObjectRetriesTransientThenSucceeds(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"https://x/1","type":"https://schema.oparl.org/1.1/Body"}`))
	}))
	defer srv.Close()

	f := newFetcher()
	_, err := f.FetchObject(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestFetchListPaginatesInOrder(t *testing.T) {
	const page2 = `{"data":[{"id":"c"}],"links":{}}`

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page2" {
			w.Write([]byte(page2))
			return
		}
		w.Write([]byte(`{"data":[{"id":"a"},{"id":"b"}],"links":{"next":"` + srv.URL + `/page2"}}`))
	}))
	defer srv.Close()

	f := newFetcher()
	all, err := f.FetchListAll(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	ids := make([]string, len(all))
	for i, raw := range all {
		var item struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &item))
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFetchListEmptyFirstPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[],"links":{}}`))
	}))
	defer srv.Close()

	f := newFetcher()
	it := f.FetchList(srv.URL, nil)
	items, ok, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, items)

	_, ok, err = it.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
