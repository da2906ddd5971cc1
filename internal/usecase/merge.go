package usecase

import (
	"sort"

	"github.com/macrolens/foodengine/internal/domain"
)

// mergeResults concatenates records in the order results are given (the
// provider priority order), ranks scored records by score within each
// source, drops duplicate (name, brand) pairs keeping the
// first, and truncates to maxResults when it is positive.
func mergeResults(results []domain.ProviderResult, maxResults int) []domain.FoodRecord {
	total := 0
	for _, res := range results {
		total += len(res.Records)
	}

	merged := make([]domain.FoodRecord, 0, total)
	seen := make(map[string]bool, total)
	for _, res := range results {
		for _, record := range rankWithinSource(res.Records) {
			key := record.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, record)
		}
	}

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// rankWithinSource returns a copy of records in which the scored records
// are ordered by score descending among the positions they occupy.
// Unscored records keep their arrival positions.
func rankWithinSource(records []domain.FoodRecord) []domain.FoodRecord {
	ranked := make([]domain.FoodRecord, len(records))
	copy(ranked, records)

	var slots []int
	var scored []domain.FoodRecord
	for i, r := range ranked {
		if r.Score != nil {
			slots = append(slots, i)
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Score > *scored[j].Score
	})
	for k, i := range slots {
		ranked[i] = scored[k]
	}
	return ranked
}
