// Package fetcher is the sole component in the engine that makes HTTP
// calls (§4.A). It exposes paginated-list and single-object GETs over a
// per-host concurrency budget, with retry/backoff and an optional response
// cache, and is the only place request/cache counters are kept.
package fetcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mandari/oparlsync/internal/cache"
	"github.com/mandari/oparlsync/internal/errors"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/models"
	"github.com/mandari/oparlsync/internal/oparl"
)

// Auth is the per-source credential the Fetcher attaches to every request
// against that source's host (§12.4).
type Auth struct {
	Type     models.AuthType
	Username string
	Secret   string
}

// Config holds the Fetcher's tunables (filled from the `Sync` config section).
type Config struct {
	MaxConcurrentPerHost int
	RequestTimeout       time.Duration
	MaxAttempts          int
	CacheTTL             time.Duration
}

// Stats is the request/cache counter snapshot the orchestrator reads at job
// end for reporting (§4.A, §4.E aggregation).
type Stats struct {
	HTTPRequests int64
	CacheHits    int64
}

// Fetcher is the capability the rest of the engine depends on: {fetch_object,
// fetch_list, fetch_list_all} (§4.A).
type Fetcher interface {
	FetchObject(ctx context.Context, rawURL string) (json.RawMessage, error)
	FetchList(rawURL string, modifiedSince *time.Time) *PageIterator
	FetchListAll(ctx context.Context, rawURL string, modifiedSince *time.Time) ([]json.RawMessage, error)
	Stats() Stats
}

type httpFetcher struct {
	client *http.Client
	cache  cache.Cache
	log    logger.Logger
	auth   Auth
	cfg    Config

	mu        sync.Mutex
	hostSems  map[string]chan struct{}
	requests  int64
	cacheHits int64
}

// New builds a Fetcher scoped to one source's host budget and credentials.
// A fresh Fetcher is constructed per source job (§5 "each source has its
// own Fetcher host budget").
func New(cfg Config, c cache.Cache, log logger.Logger, auth Auth) Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &httpFetcher{
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		cache:    c,
		log:      log,
		auth:     auth,
		cfg:      cfg,
		hostSems: make(map[string]chan struct{}),
	}
}

func (f *httpFetcher) Stats() Stats {
	return Stats{
		HTTPRequests: atomic.LoadInt64(&f.requests),
		CacheHits:    atomic.LoadInt64(&f.cacheHits),
	}
}

func (f *httpFetcher) semaphoreFor(rawURL string) chan struct{} {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	sem, ok := f.hostSems[host]
	if !ok {
		limit := f.cfg.MaxConcurrentPerHost
		if limit <= 0 {
			limit = 1
		}
		sem = make(chan struct{}, limit)
		f.hostSems[host] = sem
	}
	return sem
}

func (f *httpFetcher) acquire(ctx context.Context, rawURL string) (release func(), err error) {
	sem := f.semaphoreFor(rawURL)
	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *httpFetcher) applyAuth(req *http.Request) {
	switch f.auth.Type {
	case models.AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(f.auth.Username + ":" + f.auth.Secret))
		req.Header.Set("Authorization", "Basic "+creds)
	case models.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+f.auth.Secret)
	}
}

// doWithRetry performs one GET against rawURL, retrying transient failures
// with exponential backoff, honouring `Retry-After` on 429 (§4.A).
func (f *httpFetcher) doWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	release, err := f.acquire(ctx, rawURL)
	if err != nil {
		return nil, errors.ErrCancelled(err)
	}
	defer release()

	backoff := 250 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < f.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, errors.ErrCancelled(ctx.Err())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, errors.ErrFetchPermanent(rawURL, err)
		}
		req.Header.Set("Accept", "application/json")
		f.applyAuth(req)

		atomic.AddInt64(&f.requests, 1)
		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			f.log.Warn("transient fetch error", "url", rawURL, "attempt", attempt, "error", err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				}
			}
			lastErr = fmt.Errorf("rate limited (429)")
			time.Sleep(wait)
			backoff *= 2
			continue

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			continue

		case resp.StatusCode >= 400:
			return nil, errors.ErrFetchPermanent(rawURL, fmt.Errorf("http %d", resp.StatusCode))

		case readErr != nil:
			return nil, errors.ErrFetchPermanent(rawURL, readErr)

		default:
			return body, nil
		}
	}

	return nil, errors.ErrFetchTransient(rawURL, lastErr)
}

func (f *httpFetcher) FetchObject(ctx context.Context, rawURL string) (json.RawMessage, error) {
	cacheKey := cache.KeyFetch(rawURL)
	var cached json.RawMessage
	if f.cache != nil {
		if err := f.cache.Get(ctx, cacheKey, &cached); err == nil {
			atomic.AddInt64(&f.cacheHits, 1)
			return cached, nil
		}
	}

	body, err := f.doWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if f.cache != nil && f.cfg.CacheTTL > 0 {
		_ = f.cache.Set(ctx, cacheKey, json.RawMessage(body), f.cfg.CacheTTL)
	}
	return body, nil
}

// PageIterator walks a paginated OParl list in upstream order (§4.A "MUST
// NOT reorder"). It is finite and not restartable: once exhausted, a new
// iterator is required.
type PageIterator struct {
	f             *httpFetcher
	nextURL       string
	modifiedSince *time.Time
	done          bool
}

func (f *httpFetcher) FetchList(rawURL string, modifiedSince *time.Time) *PageIterator {
	return &PageIterator{f: f, nextURL: rawURL, modifiedSince: modifiedSince}
}

// Next fetches the next page, if any. ok is false once the list is
// exhausted; a false ok with a nil error is the normal termination case.
func (it *PageIterator) Next(ctx context.Context) (items []json.RawMessage, ok bool, err error) {
	if it.done || it.nextURL == "" {
		return nil, false, nil
	}

	target := it.nextURL
	if it.modifiedSince != nil {
		u, perr := url.Parse(target)
		if perr == nil {
			q := u.Query()
			q.Set("modified_since", it.modifiedSince.UTC().Format(time.RFC3339))
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}

	cacheKey := cache.KeyFetch(target)
	var env oparl.Envelope
	if it.f.cache != nil {
		if cerr := it.f.cache.Get(ctx, cacheKey, &env); cerr == nil {
			atomic.AddInt64(&it.f.cacheHits, 1)
			it.nextURL = env.Links.Next
			if it.nextURL == "" {
				it.done = true
			}
			return env.Data, true, nil
		}
	}

	body, derr := it.f.doWithRetry(ctx, target)
	if derr != nil {
		it.done = true
		return nil, false, derr
	}

	if uerr := json.Unmarshal(bytes.TrimSpace(body), &env); uerr != nil {
		it.done = true
		return nil, false, errors.ErrFetchPermanent(target, uerr)
	}

	if it.f.cache != nil && it.f.cfg.CacheTTL > 0 {
		_ = it.f.cache.Set(ctx, cacheKey, env, it.f.cfg.CacheTTL)
	}

	it.nextURL = env.Links.Next
	if it.nextURL == "" {
		it.done = true
	}
	return env.Data, true, nil
}

// FetchListAll eagerly drains a PageIterator into one slice (§4.A "eager
// convenience built on fetch_list"). Prefer FetchList directly when the
// caller wants early-stop behaviour, since FetchListAll always walks every
// page.
func (f *httpFetcher) FetchListAll(ctx context.Context, rawURL string, modifiedSince *time.Time) ([]json.RawMessage, error) {
	it := f.FetchList(rawURL, modifiedSince)
	var all []json.RawMessage
	for {
		items, ok, err := it.Next(ctx)
		if err != nil {
			return all, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, items...)
	}
}
