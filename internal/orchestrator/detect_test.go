package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
)

func newDetectFetcher() fetcher.Fetcher {
	return fetcher.New(fetcher.Config{MaxConcurrentPerHost: 4, RequestTimeout: 2 * time.Second, MaxAttempts: 1}, nil, logger.NewNopLogger(), fetcher.Auth{})
}

func TestDetectBodiesFromSystemDocument(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/system", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"https://schema.oparl.org/1.1/System","body":"` + srv.URL + `/bodies"}`))
	})
	mux.HandleFunc("/bodies", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"https://x/body/1","type":"https://schema.oparl.org/1.1/Body"}],"links":{}}`))
	})

	docs, err := detectBodies(context.Background(), newDetectFetcher(), srv.URL+"/system")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDetectBodiesFromBareBodyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"https://x/body/1","type":"https://schema.oparl.org/1.1/Body"}`))
	}))
	defer srv.Close()

	docs, err := detectBodies(context.Background(), newDetectFetcher(), srv.URL)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDetectBodiesFromBodyListEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"https://x/body/1","type":"https://schema.oparl.org/1.1/Body"},{"id":"https://x/body/2","type":"https://schema.oparl.org/1.1/Body"}],"links":{}}`))
	}))
	defer srv.Close()

	docs, err := detectBodies(context.Background(), newDetectFetcher(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDetectBodiesRejectsUnrecognizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"https://schema.oparl.org/1.1/Organization"}`))
	}))
	defer srv.Close()

	_, err := detectBodies(context.Background(), newDetectFetcher(), srv.URL)
	assert.Error(t, err)
}

func TestDetectBodiesSystemWithoutBodyURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"https://schema.oparl.org/1.1/System"}`))
	}))
	defer srv.Close()

	_, err := detectBodies(context.Background(), newDetectFetcher(), srv.URL)
	assert.Error(t, err)
}
