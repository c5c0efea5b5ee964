// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Entry is a league participant. Names are optional until roster metadata
// has been ingested.
type Entry struct {
	ID          int64  // stable league entry id
	EntryName   string // team name, may be empty
	PlayerName  string // manager first + last name, may be empty
	ShortName   string // upstream short name, may be empty
	WaiverOrder int
}

// DisplayName returns the best available human-readable name for the entry.
func (e Entry) DisplayName() string {
	switch {
	case strings.TrimSpace(e.EntryName) != "":
		return e.EntryName
	case strings.TrimSpace(e.PlayerName) != "":
		return e.PlayerName
	default:
		return "entry-" + strconv.FormatInt(e.ID, 10)
	}
}

// Snapshot is one observation of an entry's standing. Snapshots are immutable
// once ingested.
type Snapshot struct {
	EntryID      int64
	ObservedAt   time.Time // UTC, second precision
	Rank         int
	RankSort     int  // tie-broken ordering key
	Total        int  // cumulative points
	PeriodTotal  int  // points scored in the current gameweek
	PreviousRank *int // nil for the first observation of an entry
}

// HasPreviousRank reports whether the snapshot carries a previous rank.
func (s Snapshot) HasPreviousRank() bool { return s.PreviousRank != nil }

// RankChange is the movement of an entry relative to its previous rank.
type RankChange string

const (
	RankImproved RankChange = "improved"
	RankWorsened RankChange = "worsened"
	RankNone     RankChange = "none"
)

// Valid reports whether c is one of the known rank changes.
func (c RankChange) Valid() bool {
	switch c {
	case RankImproved, RankWorsened, RankNone:
		return true
	}
	return false
}

// Boundary marks the start of one competition period.
type Boundary struct {
	Seq   int       // sequential gameweek number
	Label string    // e.g. "GW3"
	Start time.Time // deadline that opens the period
}

// Window is the half-open interval [Start, End). The last window of a
// catalog has a zero End and is unbounded above.
type Window struct {
	Seq   int
	Label string
	Start time.Time
	End   time.Time
}

// Unbounded reports whether the window extends to +infinity.
func (w Window) Unbounded() bool { return w.End.IsZero() }

// Contains reports whether ts falls inside [Start, End).
func (w Window) Contains(ts time.Time) bool {
	if ts.Before(w.Start) {
		return false
	}
	return w.Unbounded() || ts.Before(w.End)
}

// EnrichedRow is a snapshot with derived indicators and its resolved window.
// An empty WindowLabel means the timestamp could not be resolved.
type EnrichedRow struct {
	Snapshot
	RankChange  RankChange
	BestPeriod  bool
	WindowSeq   int
	WindowLabel string
}

// Resolved reports whether the row was assigned to a window.
func (r EnrichedRow) Resolved() bool { return r.WindowLabel != "" }

// GameweekLabel formats the label used for gameweek n.
func GameweekLabel(n int) string { return "GW" + strconv.Itoa(n) }
