package deltalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sitewatch/pkg/domain"
)

const (
	summaryTitle          = "新增页面汇总"
	summaryTimestampLabel = "生成时间"
	summaryCountLabel     = "日志数量"
)

// SummaryPath returns the path of the run summary for timestamp
func SummaryPath(dir, timestamp string) string {
	return filepath.Join(dir, SummaryPrefix+timestamp+Extension)
}

// IsSummary reports whether the file name belongs to a run summary
func IsSummary(path string) bool {
	return strings.HasPrefix(filepath.Base(path), SummaryPrefix)
}

// FormatSummary renders the logs of one run grouped by source name. Groups are
// sorted by name and the logs within a group by timestamp.
func FormatSummary(timestamp string, logs []domain.DeltaLog) string {
	sorted := make([]domain.DeltaLog, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var b strings.Builder
	b.WriteString(summaryTitle + "\n")
	fmt.Fprintf(&b, "%s%s%s\n", summaryTimestampLabel, separator, timestamp)
	fmt.Fprintf(&b, "%s%s%d\n", summaryCountLabel, separator, len(sorted))

	current := ""
	for i, log := range sorted {
		if i == 0 || log.Source != current {
			current = log.Source
			fmt.Fprintf(&b, "\n## %s\n", current)
		}
		fileName := filepath.Base(log.Path)
		if log.Path == "" {
			fileName = filepath.Base(Path("", log.Source, log.Timestamp))
		}
		fmt.Fprintf(&b, "\n### %s\n", fileName)
		b.WriteString(Format(log))
	}

	return b.String()
}

// WriteSummary writes the summary of the given logs and returns its path.
// Nothing is written, and the path is empty, when logs is empty.
func WriteSummary(dir, timestamp string, logs []domain.DeltaLog) (string, error) {
	if len(logs) == 0 {
		return "", nil
	}

	path := SummaryPath(dir, timestamp)
	if err := os.WriteFile(path, []byte(FormatSummary(timestamp, logs)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return path, nil
}

// Recent lists the delta logs in dir modified no more than window before now.
// Summaries are excluded. Paths are returned sorted.
func Recent(dir string, window time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list logs in %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension || IsSummary(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= window {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
