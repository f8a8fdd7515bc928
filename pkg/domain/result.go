package domain

import "time"

// Status is the outcome of processing one source in a run
type Status string

const (
	// StatusFirstRun means there was no prior snapshot and every URL was logged
	StatusFirstRun Status = "first-run"
	// StatusAdded means new URLs were found and logged
	StatusAdded Status = "added"
	// StatusNoChange means the document parsed but nothing was new
	StatusNoChange Status = "no-change"
	// StatusUnchanged means the document is byte-identical to the prior snapshot
	StatusUnchanged Status = "unchanged"
	// StatusEmpty means the document parsed to no URLs
	StatusEmpty Status = "empty"
	// StatusFailed means fetching, parsing or writing failed
	StatusFailed Status = "failed"
	// StatusSkipped means the source was not attempted because the run was cancelled
	StatusSkipped Status = "skipped"
)

// SourceResult reports what happened to one source during a run
type SourceResult struct {
	Source   Source
	Status   Status
	Snapshot string    // Path of the snapshot written this run, if any
	Log      *DeltaLog // Set when a delta log was written
	Err      error
	Duration time.Duration
}

// Added returns the number of URLs logged for the source
func (r SourceResult) Added() int {
	if r.Log == nil {
		return 0
	}
	return r.Log.Count
}
