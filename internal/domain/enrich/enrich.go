// Package enrich derives per-row indicators for a batch of standings snapshots.
package enrich

import (
	"github.com/okian/draftboard/internal/domain/model"
)

// ClassifyRankChange compares the primary rank with the previous rank.
// Ranks are lower-is-better: moving from 3 to 1 is an improvement. Sort rank
// is never consulted. A missing previous rank yields RankNone.
func ClassifyRankChange(rank int, previous *int) model.RankChange {
	if previous == nil {
		return model.RankNone
	}
	switch {
	case rank < *previous:
		return model.RankImproved
	case rank > *previous:
		return model.RankWorsened
	default:
		return model.RankNone
	}
}

// MaxPeriodTotal returns the highest gameweek total in the batch and false
// when the batch is empty.
func MaxPeriodTotal(batch []model.Snapshot) (int, bool) {
	if len(batch) == 0 {
		return 0, false
	}
	best := batch[0].PeriodTotal
	for _, s := range batch[1:] {
		if s.PeriodTotal > best {
			best = s.PeriodTotal
		}
	}
	return best, true
}

// Batch maps snapshots to enriched rows in input order. The best-period flag
// is relative to the whole batch, not to the window a row later lands in.
// Window fields are left empty.
func Batch(batch []model.Snapshot) []model.EnrichedRow {
	rows := make([]model.EnrichedRow, len(batch))
	best, _ := MaxPeriodTotal(batch)
	for i, s := range batch {
		rows[i] = model.EnrichedRow{
			Snapshot:   s,
			RankChange: ClassifyRankChange(s.Rank, s.PreviousRank),
			BestPeriod: s.PeriodTotal == best,
		}
	}
	return rows
}
