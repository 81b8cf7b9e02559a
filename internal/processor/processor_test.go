package processor_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
)

func TestProcessTombstone(t *testing.T) {
	raw := json.RawMessage(`{"id":"https://x/paper/1","type":"https://schema.oparl.org/1.1/Paper","deleted":true}`)
	p, err := processor.Process(raw, "body-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Deleted)
	assert.Equal(t, oparl.KindPaper, p.Kind)
	assert.Nil(t, p.Paper)
}

func TestProcessUnknownKindReturnsNil(t *testing.T) {
	raw := json.RawMessage(`{"id":"https://x/1","type":"https://schema.oparl.org/1.1/Frobnicator"}`)
	p, err := processor.Process(raw, "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProcessMalformedJSON(t *testing.T) {
	_, err := processor.Process(json.RawMessage(`not json`), "")
	assert.Error(t, err)
}

func TestProcessOrganization(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "https://x/org/1",
		"type": "https://schema.oparl.org/1.1/Organization",
		"name": "City Council",
		"classification": "committee",
		"organizationType": "council",
		"startDate": "2020-01-01",
		"created": "2020-01-01T00:00:00Z",
		"modified": "2020-06-01T12:00:00Z"
	}`)
	p, err := processor.Process(raw, "body-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Organization)
	assert.Equal(t, "City Council", p.Organization.Name)
	assert.Equal(t, "committee", p.Organization.Classification)
	require.NotNil(t, p.OparlModified)
	assert.Equal(t, "body-1", p.BodyExternalID)
}

func TestProcessMeetingWithEmbeddedLocationAndAgendaItems(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "https://x/meeting/1",
		"type": "https://schema.oparl.org/1.1/Meeting",
		"name": "Plenary",
		"start": "2026-02-01T10:00:00Z",
		"location": {
			"id": "https://x/location/1",
			"type": "https://schema.oparl.org/1.1/Location",
			"room": "Chamber A"
		},
		"agendaItem": [
			{"id": "https://x/ai/1", "type": "https://schema.oparl.org/1.1/AgendaItem", "number": "1", "name": "Opening"},
			{"id": "https://x/ai/2", "type": "https://schema.oparl.org/1.1/AgendaItem", "number": "2", "name": "Budget", "meeting": "https://x/meeting/other"}
		]
	}`)
	p, err := processor.Process(raw, "")
	require.NoError(t, err)
	require.NotNil(t, p.Meeting)
	assert.Equal(t, "https://x/location/1", p.Meeting.LocationExternalID)

	var locationNested, aiCount int
	for _, child := range p.NestedEntities {
		switch child.Kind {
		case oparl.KindLocation:
			locationNested++
			assert.Equal(t, "Chamber A", child.Location.Room)
		case oparl.KindAgendaItem:
			aiCount++
		}
	}
	assert.Equal(t, 1, locationNested)
	require.Equal(t, 2, aiCount)

	for _, child := range p.NestedEntities {
		if child.Kind == oparl.KindAgendaItem && child.AgendaItem.Number == "1" {
			assert.Equal(t, "https://x/meeting/1", child.AgendaItem.MeetingExternalID, "backfilled from parent")
		}
		if child.Kind == oparl.KindAgendaItem && child.AgendaItem.Number == "2" {
			assert.Equal(t, "https://x/meeting/other", child.AgendaItem.MeetingExternalID, "upstream value wins over backfill")
		}
	}
}

func TestProcessPaperWithEmbeddedConsultation(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "https://x/paper/1",
		"type": "https://schema.oparl.org/1.1/Paper",
		"name": "Budget 2026",
		"reference": "B-2026-01",
		"consultation": [
			{"id": "https://x/consult/1", "type": "https://schema.oparl.org/1.1/Consultation", "authoritative": true}
		]
	}`)
	p, err := processor.Process(raw, "")
	require.NoError(t, err)
	require.NotNil(t, p.Paper)
	require.Len(t, p.NestedEntities, 1)
	child := p.NestedEntities[0]
	assert.Equal(t, oparl.KindConsultation, child.Kind)
	assert.Equal(t, "https://x/paper/1", child.Consultation.PaperExternalID)
	assert.True(t, child.Consultation.Authoritative)
}

func TestParseDatetime(t *testing.T) {
	assert.Nil(t, processor.ParseDatetime(""))
	assert.Nil(t, processor.ParseDatetime("not a date"))
	assert.NotNil(t, processor.ParseDatetime("2026-01-01"))
	assert.NotNil(t, processor.ParseDatetime("2026-01-01T00:00:00Z"))
}
