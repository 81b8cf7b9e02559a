package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandari/oparlsync/internal/oparl"
	"github.com/mandari/oparlsync/internal/processor"
	"github.com/mandari/oparlsync/internal/store"
)

func TestFakeUpsertAndBatchExists(t *testing.T) {
	s := store.NewFake()
	idc := store.NewIdentityCache()
	ctx := context.Background()
	bodyID := uuid.New()

	modified := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &processor.Processed{
		Kind:          oparl.KindPerson,
		ExternalID:    "https://x/person/1",
		OparlModified: &modified,
		Person:        &processor.PersonFields{GivenName: "Ada"},
	}

	id, skipped, reason, err := s.Upsert(ctx, bodyID, p, idc)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Empty(t, reason)
	assert.NotEqual(t, uuid.Nil, id)

	existing, err := s.BatchExists(ctx, oparl.KindPerson, []string{"https://x/person/1", "https://x/person/missing"})
	require.NoError(t, err)
	require.Contains(t, existing, "https://x/person/1")
	assert.Nil(t, existing["https://x/person/missing"])
	assert.True(t, existing["https://x/person/1"].Equal(modified))
}

func TestFakeDeleteIsIdempotent(t *testing.T) {
	s := store.NewFake()
	ctx := context.Background()
	removed, err := s.Delete(ctx, oparl.KindPerson, "https://x/person/unknown")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFakeFileNotSkippedOnMissingPaperFK(t *testing.T) {
	s := store.NewFake()
	idc := store.NewIdentityCache()
	ctx := context.Background()
	bodyID := uuid.New()

	paper := &processor.Processed{Kind: oparl.KindPaper, ExternalID: "https://x/paper/1", Paper: &processor.PaperFields{Name: "Budget"}}
	_, _, _, err := s.Upsert(ctx, bodyID, paper, idc)
	require.NoError(t, err)

	file := &processor.Processed{
		Kind: oparl.KindFile, ExternalID: "https://x/file/1",
		File: &processor.FileFields{PaperExternalID: "https://x/paper/1", FileName: "budget.pdf"},
	}
	_, skipped, _, err := s.Upsert(ctx, bodyID, file, idc)
	require.NoError(t, err)
	assert.False(t, skipped)

	fileNoFK := &processor.Processed{
		Kind: oparl.KindFile, ExternalID: "https://x/file/1",
		File: &processor.FileFields{FileName: "budget-renamed.pdf"},
	}
	_, skipped, _, err = s.Upsert(ctx, bodyID, fileNoFK, idc)
	require.NoError(t, err)
	assert.False(t, skipped, "a File upsert is never skipped for a missing optional paper FK")
}

func TestFakeMembershipSkipsOnUnresolvedFK(t *testing.T) {
	s := store.NewFake()
	idc := store.NewIdentityCache()
	ctx := context.Background()

	m := &processor.Processed{
		Kind: oparl.KindMembership, ExternalID: "https://x/membership/1",
		Membership: &processor.MembershipFields{PersonExternalID: "https://x/person/missing", OrganizationExternalID: "https://x/org/missing"},
	}
	_, skipped, reason, err := s.Upsert(ctx, uuid.New(), m, idc)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, "fk_unresolved", reason)
}

func TestFakeKindCounts(t *testing.T) {
	s := store.NewFake()
	idc := store.NewIdentityCache()
	ctx := context.Background()
	bodyID := uuid.New()

	for i := 0; i < 3; i++ {
		p := &processor.Processed{Kind: oparl.KindOrganization, ExternalID: uuid.NewString(), Organization: &processor.OrganizationFields{Name: "Org"}}
		_, _, _, err := s.Upsert(ctx, bodyID, p, idc)
		require.NoError(t, err)
	}

	counts, err := s.KindCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[string(oparl.KindOrganization)])
}
