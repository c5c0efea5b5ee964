// Package window builds gameweek catalogs and resolves timestamps to windows.
package window

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/draftboard/internal/domain/model"
)

// Catalog is an ordered, immutable set of disjoint windows. Every window but
// the last is bounded; the last is unbounded above.
type Catalog struct {
	windows []model.Window
}

// Build turns an ascending boundary sequence into a catalog. Window i spans
// [b[i], b[i+1]) and the last window spans [b[last], +inf). Sequence numbers
// and labels must be unique.
func Build(boundaries []model.Boundary) (Catalog, error) {
	if len(boundaries) == 0 {
		return Catalog{}, fmt.Errorf("%w: no boundaries", ErrInvalidBoundarySequence)
	}
	windows := make([]model.Window, len(boundaries))
	seqs := make(map[int]struct{}, len(boundaries))
	labels := make(map[string]struct{}, len(boundaries))
	for i, b := range boundaries {
		if b.Start.IsZero() {
			return Catalog{}, fmt.Errorf("%w: boundary %q has no start", ErrInvalidBoundarySequence, b.Label)
		}
		if i > 0 && !b.Start.After(boundaries[i-1].Start) {
			return Catalog{}, fmt.Errorf("%w: %q (%s) does not follow %q (%s)", ErrInvalidBoundarySequence,
				b.Label, b.Start.Format(time.RFC3339), boundaries[i-1].Label, boundaries[i-1].Start.Format(time.RFC3339))
		}
		label := b.Label
		if label == "" {
			label = model.GameweekLabel(b.Seq)
		}
		if _, dup := seqs[b.Seq]; dup {
			return Catalog{}, fmt.Errorf("%w: sequence %d repeats", ErrInvalidBoundarySequence, b.Seq)
		}
		if _, dup := labels[label]; dup {
			return Catalog{}, fmt.Errorf("%w: label %q repeats", ErrInvalidBoundarySequence, label)
		}
		seqs[b.Seq] = struct{}{}
		labels[label] = struct{}{}
		windows[i] = model.Window{Seq: b.Seq, Label: label, Start: b.Start.UTC()}
		if i > 0 {
			windows[i-1].End = windows[i].Start
		}
	}
	return Catalog{windows: windows}, nil
}

// Windows returns a copy of the catalog's windows in order.
func (c Catalog) Windows() []model.Window {
	out := make([]model.Window, len(c.windows))
	copy(out, c.windows)
	return out
}

// Len returns the number of windows.
func (c Catalog) Len() int { return len(c.windows) }

// Latest returns the unbounded final window.
func (c Catalog) Latest() (model.Window, bool) {
	if len(c.windows) == 0 {
		return model.Window{}, false
	}
	return c.windows[len(c.windows)-1], true
}

// Resolve returns the window containing ts, or false when ts precedes the
// first boundary. A timestamp equal to a boundary belongs to the window that
// starts there.
func (c Catalog) Resolve(ts time.Time) (model.Window, bool) {
	// first window starting strictly after ts; its predecessor contains ts
	i := sort.Search(len(c.windows), func(i int) bool {
		return c.windows[i].Start.After(ts)
	})
	if i == 0 {
		return model.Window{}, false
	}
	return c.windows[i-1], true
}

// ResolveScan is the ordered-scan counterpart of Resolve. It must always agree
// with Resolve.
func (c Catalog) ResolveScan(ts time.Time) (model.Window, bool) {
	for _, w := range c.windows {
		if w.Contains(ts) {
			return w, true
		}
	}
	return model.Window{}, false
}

// Assign stamps each row with the window resolved from its timestamp. Rows
// that cannot be resolved keep an empty label. It returns the number of
// unresolved rows.
func (c Catalog) Assign(rows []model.EnrichedRow) int {
	unresolved := 0
	for i := range rows {
		w, ok := c.Resolve(rows[i].ObservedAt)
		if !ok {
			rows[i].WindowSeq = 0
			rows[i].WindowLabel = ""
			unresolved++
			continue
		}
		rows[i].WindowSeq = w.Seq
		rows[i].WindowLabel = w.Label
	}
	return unresolved
}
