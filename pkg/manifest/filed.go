package manifest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const filedExtension = ".filed.yaml"

// Filed lists the delta logs of one run that already have an issue.
// It is kept beside the run manifest so repeated filer passes skip them.
type Filed struct {
	RunID     string    `yaml:"run_id"`
	Logs      []string  `yaml:"logs"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// FiledPath returns the path of the filed record for the manifest at manifestPath
func FiledPath(manifestPath string) string {
	return strings.TrimSuffix(manifestPath, extension) + filedExtension
}

// ReadFiled loads the filed record of a manifest. A missing record is empty.
func ReadFiled(manifestPath string) (*Filed, error) {
	path := FiledPath(manifestPath)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Filed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read filed record: %w", err)
	}

	var f Filed
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse filed record %s: %w", path, err)
	}
	return &f, nil
}

// Has reports whether logKey is recorded as filed
func (f *Filed) Has(logKey string) bool {
	for _, l := range f.Logs {
		if l == logKey {
			return true
		}
	}
	return false
}

// Add records logKey as filed
func (f *Filed) Add(logKey string, at time.Time) {
	if !f.Has(logKey) {
		f.Logs = append(f.Logs, logKey)
	}
	f.UpdatedAt = at
}

// WriteFiled stores the filed record beside the manifest at manifestPath
func WriteFiled(manifestPath string, f *Filed) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal filed record: %w", err)
	}

	path := FiledPath(manifestPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write filed record %s: %w", path, err)
	}
	return nil
}
