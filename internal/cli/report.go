package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/okian/draftboard/internal/app"
	"github.com/okian/draftboard/internal/domain/window"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
	markColor = color.New(color.FgHiMagenta)
)

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "(none)"
	}
	return ts.UTC().Format(time.RFC3339)
}

func printIngest(w io.Writer, r app.IngestReport) {
	fmt.Fprintf(w, "%s capture %s\n", okColor.Sprint("INGESTED"), formatTime(r.ObservedAt))
	fmt.Fprintf(w, "  entries:   %d\n", r.Entries)
	fmt.Fprintf(w, "  snapshots: %d fetched, %d new\n", r.Fetched, r.Inserted)
}

func printMerge(w io.Writer, r app.Report) {
	if r.NoNewData {
		fmt.Fprintf(w, "%s nothing newer than %s\n", dimColor.Sprint("NO NEW DATA"), formatTime(r.WatermarkBefore))
		return
	}
	status := okColor.Sprint("MERGED")
	if r.Appended == 0 {
		status = warnColor.Sprint("SKIPPED")
	}
	fmt.Fprintf(w, "%s run %s in %s\n", status, r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  watermark:  %s -> %s\n", formatTime(r.WatermarkBefore), formatTime(r.WatermarkAfter))
	fmt.Fprintf(w, "  read:       %d\n", r.Read)
	fmt.Fprintf(w, "  appended:   %d\n", r.Appended)
	fmt.Fprintf(w, "  superseded: %d\n", r.Superseded)
	if r.Unresolved > 0 {
		fmt.Fprintf(w, "  unresolved: %s\n", warnColor.Sprintf("%d (before the first gameweek)", r.Unresolved))
	}
	if len(r.Windows) > 0 {
		fmt.Fprintf(w, "  gameweeks:  %s\n", strings.Join(r.Windows, ", "))
	}
}

// printWindows lists the catalog and marks the window containing at.
func printWindows(w io.Writer, c window.Catalog, at time.Time) {
	current, found := c.Resolve(at)
	for _, win := range c.Windows() {
		end := "open"
		if !win.Unbounded() {
			end = formatTime(win.End)
		}
		marker := ""
		if found && win.Seq == current.Seq {
			marker = markColor.Sprint(" <- " + formatTime(at))
		}
		fmt.Fprintf(w, "%-5s %s .. %s%s\n", win.Label, formatTime(win.Start), end, marker)
	}
	if !found {
		fmt.Fprintf(w, "%s %s precedes the first gameweek\n", warnColor.Sprint("NOTE"), formatTime(at))
	}
}
