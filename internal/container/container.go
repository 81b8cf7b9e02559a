// Package container wires the engine's dependency graph: config → logger →
// cache → pubsub → db → fetcher factory → store → orchestrator → dashboard
// handlers. One Container is built per process invocation (CLI command or
// dashboard server).
package container

import (
	"context"

	gormio "gorm.io/gorm"

	"github.com/mandari/oparlsync/internal/cache"
	"github.com/mandari/oparlsync/internal/clock"
	"github.com/mandari/oparlsync/internal/config"
	"github.com/mandari/oparlsync/internal/dashboard"
	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/logger"
	"github.com/mandari/oparlsync/internal/metrics"
	"github.com/mandari/oparlsync/internal/orchestrator"
	"github.com/mandari/oparlsync/internal/pubsub"
	"github.com/mandari/oparlsync/internal/store"
)

// Container manages application dependencies.
type Container struct {
	Config *config.Config
	DB     *gormio.DB
	Cache  cache.Cache
	PubSub pubsub.PubSub
	Logger logger.Logger

	Store        store.Store
	Metrics      metrics.Metrics
	Clock        clock.Clock
	EventSink    pubsub.EventSink
	Orchestrator *orchestrator.Orchestrator
	Dashboard    *dashboard.Handler
}

// NewContainer initializes all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, db *gormio.DB, cacheClient cache.Cache, log logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
		Cache:  cacheClient,
		Logger: log,
	}

	c.PubSub = pubsub.NewRedisPubSub(cacheClient.GetClient())
	c.EventSink = pubsub.NewEventSink(c.PubSub, log)
	c.Metrics = metrics.Nop{}
	c.Clock = clock.Real{}

	c.Store = store.NewGormStore(db, log)

	fetcherCfg := fetcher.Config{
		MaxConcurrentPerHost: cfg.Sync.MaxConcurrentHosts,
		RequestTimeout:       cfg.Sync.RequestTimeout,
		CacheTTL:             cfg.Cache.TTL,
	}
	newFetcher := func(auth fetcher.Auth) fetcher.Fetcher {
		return fetcher.New(fetcherCfg, cacheClient, log, auth)
	}

	c.Orchestrator = &orchestrator.Orchestrator{
		Store:      c.Store,
		Events:     c.EventSink,
		Metrics:    c.Metrics,
		Clock:      c.Clock,
		Log:        log,
		Sync:       cfg.Sync,
		NewFetcher: newFetcher,
	}

	c.Dashboard = dashboard.New(c.Store, c.PubSub, log)

	return c, nil
}

// Close performs cleanup of dependencies.
func (c *Container) Close() error {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return nil
}
