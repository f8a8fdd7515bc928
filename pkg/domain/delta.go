package domain

import "time"

// DeltaLog records, for one source and one run, the URLs present in the newest
// snapshot but absent from the one before it.
type DeltaLog struct {
	Source    string   `yaml:"source"`
	Timestamp string   `yaml:"timestamp"`
	Count     int      `yaml:"count"`
	URLs      []string `yaml:"-"` // Sorted lexicographically
	Path      string   `yaml:"path"`
}

// FiledIssue is a ledger record of an issue created for a delta log
type FiledIssue struct {
	LogKey   string    `bson:"log_key"`
	Source   string    `bson:"source"`
	IssueURL string    `bson:"issue_url"`
	FiledAt  time.Time `bson:"filed_at"`
}
