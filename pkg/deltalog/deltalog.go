// Package deltalog writes and reads the per-source delta logs and the run summary.
//
// A delta log is positional text:
//
//	网站: <name>
//	检测时间: <timestamp>
//	新增页面数量: <count>
//
//	<url>
//	...
package deltalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sitewatch/pkg/domain"
)

const (
	// Extension is the file extension of delta logs and summaries
	Extension = ".txt"

	// SummaryPrefix starts the file name of every run summary
	SummaryPrefix = "summary_"

	nameLabel      = "网站"
	timestampLabel = "检测时间"
	countLabel     = "新增页面数量"
	separator      = ": "

	// headerLines is the number of lines before the URL list, blank line included
	headerLines = 4
)

var (
	// ErrMalformedLog is returned when a delta log does not have the expected header
	ErrMalformedLog = errors.New("malformed delta log")

	// ErrMultilineURL is returned by Write for a URL that would span several log lines
	ErrMultilineURL = errors.New("url contains a line break")
)

// Path returns the path of the delta log for name at timestamp
func Path(dir, name, timestamp string) string {
	return filepath.Join(dir, name+"_"+timestamp+Extension)
}

// Format renders a delta log. URLs are written in the order given.
func Format(log domain.DeltaLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s\n", nameLabel, separator, log.Source)
	fmt.Fprintf(&b, "%s%s%s\n", timestampLabel, separator, log.Timestamp)
	fmt.Fprintf(&b, "%s%s%d\n\n", countLabel, separator, log.Count)
	for _, u := range log.URLs {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	return b.String()
}

// Write writes the delta log into dir and records the resulting path on log.
// Empty logs are never written.
func Write(dir string, log *domain.DeltaLog) error {
	if len(log.URLs) == 0 {
		return fmt.Errorf("refusing to write empty delta log for %s", log.Source)
	}
	for _, u := range log.URLs {
		if strings.ContainsAny(u, "\r\n") {
			return fmt.Errorf("%w: %q in delta log for %s", ErrMultilineURL, u, log.Source)
		}
	}
	log.Count = len(log.URLs)

	path := Path(dir, log.Source, log.Timestamp)
	if err := os.WriteFile(path, []byte(Format(*log)), 0o644); err != nil {
		return fmt.Errorf("failed to write delta log %s: %w", path, err)
	}
	log.Path = path
	return nil
}

// Parse reads a delta log positionally: name, timestamp and count from the first
// three lines, URLs from every non-blank line after the fourth.
func Parse(content string) (domain.DeltaLog, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < headerLines-1 {
		return domain.DeltaLog{}, fmt.Errorf("%w: expected %d header lines, got %d", ErrMalformedLog, headerLines-1, len(lines))
	}

	name, err := headerValue(lines[0])
	if err != nil {
		return domain.DeltaLog{}, err
	}
	timestamp, err := headerValue(lines[1])
	if err != nil {
		return domain.DeltaLog{}, err
	}
	rawCount, err := headerValue(lines[2])
	if err != nil {
		return domain.DeltaLog{}, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(rawCount))
	if err != nil {
		return domain.DeltaLog{}, fmt.Errorf("%w: count %q is not a number", ErrMalformedLog, rawCount)
	}

	var urls []string
	if len(lines) > headerLines {
		for _, line := range lines[headerLines:] {
			if strings.TrimSpace(line) != "" {
				urls = append(urls, line)
			}
		}
	}

	return domain.DeltaLog{
		Source:    name,
		Timestamp: timestamp,
		Count:     count,
		URLs:      urls,
	}, nil
}

// ParseFile reads and parses the delta log at path
func ParseFile(path string) (domain.DeltaLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DeltaLog{}, fmt.Errorf("failed to read delta log: %w", err)
	}

	log, err := Parse(string(data))
	if err != nil {
		return domain.DeltaLog{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Path = path
	return log, nil
}

func headerValue(line string) (string, error) {
	parts := strings.SplitN(line, separator, 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: header line %q has no value", ErrMalformedLog, line)
	}
	return parts[1], nil
}
