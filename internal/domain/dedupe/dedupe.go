// Package dedupe keeps the latest enriched row per entry per gameweek window.
package dedupe

import (
	"sort"

	"github.com/okian/draftboard/internal/domain/model"
)

// Result is the outcome of one deduplication pass.
type Result struct {
	// Rows holds exactly one row per (entry, window), ordered by window
	// sequence, sort rank and entry id.
	Rows []model.EnrichedRow
	// Unresolved counts rows dropped because they carry no window.
	Unresolved int
	// Superseded counts resolved rows dropped in favour of a later observation.
	Superseded int
}

type key struct {
	entryID int64
	window  int
}

// LatestPerWindow groups rows by (entry id, window sequence) and keeps the row
// with the greatest timestamp in each group. Rows without a window label are
// discarded. When two rows of a group share a timestamp, the one that came
// first in the input wins.
func LatestPerWindow(rows []model.EnrichedRow) Result {
	var res Result
	latest := make(map[key]int, len(rows)) // key -> index into rows
	order := make([]key, 0, len(rows))

	for i, r := range rows {
		if !r.Resolved() {
			res.Unresolved++
			continue
		}
		k := key{entryID: r.EntryID, window: r.WindowSeq}
		cur, ok := latest[k]
		if !ok {
			latest[k] = i
			order = append(order, k)
			continue
		}
		res.Superseded++
		if r.ObservedAt.After(rows[cur].ObservedAt) {
			latest[k] = i
		}
	}

	res.Rows = make([]model.EnrichedRow, 0, len(order))
	for _, k := range order {
		res.Rows = append(res.Rows, rows[latest[k]])
	}
	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		if a.WindowSeq != b.WindowSeq {
			return a.WindowSeq < b.WindowSeq
		}
		if a.RankSort != b.RankSort {
			return a.RankSort < b.RankSort
		}
		return a.EntryID < b.EntryID
	})
	return res
}
