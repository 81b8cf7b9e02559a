package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

const (
	KeyPrefixFetch = "fetch:"
	KeyPrefixRun   = "run:"
)

// KeyFetch returns the cache key for a Fetcher response, keyed by the exact
// request URL (including any modified_since query parameter). URLs are
// hashed rather than used verbatim because Redis keys have practical length
// limits and OParl list URLs can carry long query strings.
func KeyFetch(url string) string {
	sum := sha256.Sum256([]byte(url))
	return KeyPrefixFetch + hex.EncodeToString(sum[:])
}

// ChannelSyncRun returns the pubsub channel a sync run's lifecycle events are
// published on, consumed by the operator dashboard's websocket handler.
func ChannelSyncRun(runID uuid.UUID) string {
	return KeyPrefixRun + runID.String() + ":events"
}
