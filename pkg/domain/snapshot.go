package domain

import "time"

// TimestampLayout is the layout embedded in every snapshot, log and summary file name
const TimestampLayout = "2006-01-02_15-04-05"

// FormatTimestamp renders t in the file name layout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Snapshot is one dated capture of a source's raw document.
// Snapshots are immutable once written and are never pruned.
type Snapshot struct {
	Source    string    // Source name
	Path      string    // Location on disk
	Timestamp string    // Timestamp embedded in the file name
	ModTime   time.Time // Filesystem modification time, used to pick the prior snapshot
	Digest    uint64    // xxhash of the file content, zero until computed
}
