package services

import (
	"sort"

	"github.com/joelmbaka/introspect/internal/core/domain"
)

// MergeBatches flattens result batches into one deduplicated, ranked list.
//
// Deduplication is by record ID: a record with a numeric similarity always
// beats one with nil similarity for the same ID, and between two numeric
// scores the higher wins. Records without an ID are never deduplicated and
// pass through verbatim. The final order is descending similarity, with nil
// treated as 0 for ordering only - the stored value is not mutated.
func MergeBatches(batches ...[]domain.EntryRecord) []domain.EntryRecord {
	byID := make(map[string]domain.EntryRecord)
	var order []string
	var anonymous []domain.EntryRecord

	for _, batch := range batches {
		for _, rec := range batch {
			if rec.ID == "" {
				anonymous = append(anonymous, rec)
				continue
			}
			existing, seen := byID[rec.ID]
			if !seen {
				byID[rec.ID] = rec
				order = append(order, rec.ID)
				continue
			}
			if preferred(rec, existing) {
				byID[rec.ID] = rec
			}
		}
	}

	merged := make([]domain.EntryRecord, 0, len(order)+len(anonymous))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	merged = append(merged, anonymous...)

	sort.SliceStable(merged, func(i, j int) bool {
		return rankScore(merged[i]) > rankScore(merged[j])
	})

	return merged
}

// preferred reports whether candidate should replace existing for the same
// ID. Numeric similarity wins over nil; higher numeric wins over lower.
func preferred(candidate, existing domain.EntryRecord) bool {
	switch {
	case candidate.Similarity == nil:
		return false
	case existing.Similarity == nil:
		return true
	default:
		return *candidate.Similarity > *existing.Similarity
	}
}

// rankScore orders records, treating nil similarity as 0.
func rankScore(rec domain.EntryRecord) float64 {
	if rec.Similarity == nil {
		return 0
	}
	return *rec.Similarity
}

// SortByDateDesc orders records newest first. Date strings are ISO calendar
// dates, so lexicographic comparison is chronological.
func SortByDateDesc(records []domain.EntryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}
