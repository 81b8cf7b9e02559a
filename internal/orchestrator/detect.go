package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mandari/oparlsync/internal/fetcher"
)

// detectProbe is the minimal shape needed to classify a top-level URL
// (§4.E "URL auto-detection"): a bare entity (System or Body) or an
// envelope wrapping a list of entities.
type detectProbe struct {
	Type string            `json:"type"`
	Body string            `json:"body"`
	Data []json.RawMessage `json:"data"`
}

type typeProbe struct {
	Type string `json:"type"`
}

func hasSuffix(typeURL, suffix string) bool {
	return strings.HasSuffix(typeURL, suffix)
}

func peekType(raw json.RawMessage) string {
	var t typeProbe
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	return t.Type
}

// detectBodies fetches rawURL once and classifies its shape per the table in
// §4.E, returning the raw JSON of every Body document it points at.
func detectBodies(ctx context.Context, f fetcher.Fetcher, rawURL string) ([]json.RawMessage, error) {
	raw, err := f.FetchObject(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var probe detectProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("not an OParl endpoint: %s: %w", rawURL, err)
	}

	switch {
	case hasSuffix(probe.Type, "/System"):
		if probe.Body == "" {
			return nil, fmt.Errorf("not an OParl endpoint: %s: System document has no body url", rawURL)
		}
		return f.FetchListAll(ctx, probe.Body, nil)

	case hasSuffix(probe.Type, "/Body"):
		return []json.RawMessage{raw}, nil

	case len(probe.Data) > 0 && hasSuffix(peekType(probe.Data[0]), "/Body"):
		return f.FetchListAll(ctx, rawURL, nil)

	default:
		return nil, fmt.Errorf("not an OParl endpoint: %s", rawURL)
	}
}
