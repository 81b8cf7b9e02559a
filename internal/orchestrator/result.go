package orchestrator

import "time"

// KindCounts is a per-kind {synced, tombstoned, skipped} tally, keyed by
// oparl.Kind string value.
type KindCounts struct {
	Synced     int `json:"synced"`
	Tombstoned int `json:"tombstoned"`
	Skipped    int `json:"skipped"`
}

// BodyResult is one body job's contribution to the source-level result.
type BodyResult struct {
	ExternalID string                 `json:"external_id"`
	Name       string                 `json:"name"`
	Mode       string                 `json:"mode"`
	Counts     map[string]KindCounts  `json:"counts"`
	Errors     []string               `json:"errors,omitempty"`
}

// SourceResult is the aggregated outcome of one source-level job (§4.E
// "Aggregation"), returned by SyncSource and collected by SyncAll.
type SourceResult struct {
	SourceURL  string        `json:"source_url"`
	SourceName string        `json:"source_name"`
	Success    bool          `json:"success"`
	Bodies     []BodyResult  `json:"bodies"`
	Errors     []string      `json:"errors,omitempty"`
	Duration   time.Duration `json:"duration"`
	HTTPStats  HTTPStats     `json:"http_stats"`
}

// HTTPStats mirrors fetcher.Stats for the aggregated report.
type HTTPStats struct {
	HTTPRequests int64 `json:"http_requests"`
	CacheHits    int64 `json:"cache_hits"`
}
