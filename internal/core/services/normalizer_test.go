package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

func TestMergeBatchesDeduplicatesByID(t *testing.T) {
	a := []domain.EntryRecord{
		entry("x", "first", "2025-01-01", simPtr(0.4)),
		entry("y", "second", "2025-01-02", simPtr(0.9)),
	}
	b := []domain.EntryRecord{
		entry("x", "first again", "2025-01-01", simPtr(0.7)),
	}

	merged := MergeBatches(a, b)

	require.Len(t, merged, 2)
	byID := map[string]domain.EntryRecord{}
	for _, rec := range merged {
		byID[rec.ID] = rec
	}
	require.NotNil(t, byID["x"].Similarity)
	assert.InDelta(t, 0.7, *byID["x"].Similarity, 1e-9, "higher similarity wins the tie-break")
}

func TestMergeBatchesNumericBeatsNil(t *testing.T) {
	a := []domain.EntryRecord{entry("x", "dated", "2025-01-01", nil)}
	b := []domain.EntryRecord{entry("x", "scored", "2025-01-01", simPtr(0.2))}

	merged := MergeBatches(a, b)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Similarity)
	assert.InDelta(t, 0.2, *merged[0].Similarity, 1e-9)

	// Same result regardless of batch order.
	merged = MergeBatches(b, a)
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Similarity)
}

func TestMergeBatchesIdempotent(t *testing.T) {
	batch := []domain.EntryRecord{
		entry("a", "one", "2025-01-01", simPtr(0.9)),
		entry("b", "two", "2025-01-02", simPtr(0.5)),
		entry("c", "three", "2025-01-03", nil),
	}

	once := MergeBatches(batch)
	twice := MergeBatches(once, once)

	assert.Equal(t, once, twice)
	assert.Len(t, twice, 3)
}

func TestMergeBatchesSortsDescendingWithNilAsZero(t *testing.T) {
	batch := []domain.EntryRecord{
		entry("low", "low", "2025-01-01", simPtr(0.1)),
		entry("none", "none", "2025-01-02", nil),
		entry("high", "high", "2025-01-03", simPtr(0.8)),
	}

	merged := MergeBatches(batch)

	require.Len(t, merged, 3)
	assert.Equal(t, "high", merged[0].ID)
	assert.Equal(t, "low", merged[1].ID)
	assert.Equal(t, "none", merged[2].ID)
	// Ordering treats nil as zero without mutating the stored value.
	assert.Nil(t, merged[2].Similarity)
}

func TestMergeBatchesKeepsAnonymousRecordsVerbatim(t *testing.T) {
	batch := []domain.EntryRecord{
		{Title: "no id", Date: "2025-01-01"},
		{Title: "no id", Date: "2025-01-01"},
		entry("a", "one", "2025-01-02", simPtr(0.5)),
	}

	merged := MergeBatches(batch)
	assert.Len(t, merged, 3, "records without an ID are never deduplicated")
}

func TestSortByDateDesc(t *testing.T) {
	records := []domain.EntryRecord{
		entry("a", "old", "2024-03-01", nil),
		entry("b", "new", "2025-02-10", nil),
		entry("c", "mid", "2024-12-31", nil),
	}

	SortByDateDesc(records)

	assert.Equal(t, []string{"b", "c", "a"}, []string{records[0].ID, records[1].ID, records[2].ID})
}
