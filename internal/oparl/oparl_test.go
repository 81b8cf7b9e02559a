package oparl_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mandari/oparlsync/internal/oparl"
)

func TestKindFromType(t *testing.T) {
	tests := []struct {
		name    string
		typeURL string
		want    oparl.Kind
		wantOK  bool
	}{
		{"system", "https://schema.oparl.org/1.1/System", oparl.KindSource, true},
		{"body", "https://schema.oparl.org/1.1/Body", oparl.KindBody, true},
		{"agenda item", "https://schema.oparl.org/1.1/AgendaItem", oparl.KindAgendaItem, true},
		{"legislative term", "https://schema.oparl.org/1.1/LegislativeTerm", oparl.KindLegislativeTerm, true},
		{"unknown suffix", "https://schema.oparl.org/1.1/Frobnicator", oparl.KindUnknown, false},
		{"no slash", "Body", oparl.KindBody, true},
		{"empty", "", oparl.KindUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := oparl.KindFromType(tt.typeURL)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestIsTombstone(t *testing.T) {
	assert.True(t, oparl.IsTombstone(json.RawMessage(`{"id":"x","type":"y","deleted":true}`)))
	assert.False(t, oparl.IsTombstone(json.RawMessage(`{"id":"x","type":"y"}`)))
	assert.False(t, oparl.IsTombstone(json.RawMessage(`not json`)))
}

func TestPeekIdentity(t *testing.T) {
	raw := json.RawMessage(`{"id":"https://example.org/p/1","type":"https://schema.oparl.org/1.1/Paper","modified":"2026-01-01T00:00:00Z"}`)
	id, typeURL, modified, deleted, err := oparl.PeekIdentity(raw)
	assert.NoError(t, err)
	assert.Equal(t, "https://example.org/p/1", id)
	assert.Equal(t, "https://schema.oparl.org/1.1/Paper", typeURL)
	assert.Equal(t, "2026-01-01T00:00:00Z", modified)
	assert.False(t, deleted)

	_, _, _, _, err = oparl.PeekIdentity(json.RawMessage(`not json`))
	assert.Error(t, err)
}
