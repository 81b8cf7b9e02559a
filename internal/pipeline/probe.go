package pipeline

import (
	"context"
	"time"

	"github.com/mandari/oparlsync/internal/fetcher"
	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
)

// ProbeServerFilter performs the server-filter probe (§4.D), emitted once
// per body job before any entity pipeline runs. It prefers the paper list,
// falling back to the meeting list, and reports whether modified_since
// appears to be honoured by upstream.
func ProbeServerFilter(ctx context.Context, f fetcher.Fetcher, paperListURL, meetingListURL string, lastSync time.Time) bool {
	probeURL := paperListURL
	if probeURL == "" {
		probeURL = meetingListURL
	}
	if probeURL == "" {
		return false
	}

	it := f.FetchList(probeURL, &lastSync)
	items, ok, err := it.Next(ctx)
	if err != nil || !ok {
		return false
	}
	if len(items) == 0 {
		return true
	}

	for _, raw := range items {
		_, _, modifiedStr, _, err := oparl.PeekIdentity(raw)
		if err != nil {
			continue
		}
		modified := processor.ParseDatetime(modifiedStr)
		if modified == nil {
			continue
		}
		if modified.Before(lastSync) {
			return false
		}
	}
	return true
}
