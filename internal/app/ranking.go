package app

import (
	"sort"

	"studyquiz-service/internal/domain"
)

// ComputeRanks returns the records sorted into competition order (score
// descending, time taken ascending) with standard competition ranks assigned:
// records tied on both score and time share a rank, and the next distinct
// record resumes at its 1-based position. The input slice is not modified.
func ComputeRanks(records []domain.ScoreRecord) []domain.ScoreRecord {
	ranked := make([]domain.ScoreRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].TimeTaken < ranked[j].TimeTaken
	})

	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score && ranked[i].TimeTaken == ranked[i-1].TimeTaken {
			ranked[i].Rank = ranked[i-1].Rank
		} else {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}
