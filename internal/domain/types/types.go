// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/draftboard/internal/domain/model"
)

// Entry is one enriched standings row as served to readers.
type Entry struct {
	EntryID       int64     `json:"entry_id"`
	EntryName     string    `json:"entry_name,omitempty"`
	PlayerName    string    `json:"player_name,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
	Gameweek      int       `json:"gameweek"`
	GameweekLabel string    `json:"gameweek_label"`
	Rank          int       `json:"rank"`
	RankSort      int       `json:"rank_sort"`
	Total         int       `json:"total"`
	EventTotal    int       `json:"event_total"`
	LastRank      *int      `json:"last_rank"`
	RankChange    string    `json:"rank_change"`
	BestGameweek  bool      `json:"best_gw"`
}

// FromRow converts an enriched row plus optional roster metadata to the read shape.
func FromRow(r model.EnrichedRow, e model.Entry) Entry {
	return Entry{
		EntryID:       r.EntryID,
		EntryName:     e.EntryName,
		PlayerName:    e.PlayerName,
		ObservedAt:    r.ObservedAt.UTC(),
		Gameweek:      r.WindowSeq,
		GameweekLabel: r.WindowLabel,
		Rank:          r.Rank,
		RankSort:      r.RankSort,
		Total:         r.Total,
		EventTotal:    r.PeriodTotal,
		LastRank:      r.PreviousRank,
		RankChange:    string(r.RankChange),
		BestGameweek:  r.BestPeriod,
	}
}
