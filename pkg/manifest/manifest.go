// Package manifest records which delta logs and summary a detection run produced.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"sitewatch/pkg/domain"
)

// Version is the manifest format written by this package
const Version = 1

const (
	prefix    = "run_"
	extension = ".yaml"
)

var namePattern = regexp.MustCompile(`^run_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.yaml$`)

var (
	// ErrNoManifest is returned by Latest when the directory holds no manifest
	ErrNoManifest = errors.New("no run manifest found")

	// ErrUnsupportedVersion is returned for manifests written in an unknown format
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
)

// Manifest is the explicit record of one detection run
type Manifest struct {
	Version   int               `yaml:"version"`
	RunID     string            `yaml:"run_id"`
	Timestamp string            `yaml:"timestamp"`
	Logs      []domain.DeltaLog `yaml:"logs"`
	Summary   string            `yaml:"summary,omitempty"`
}

// New creates a manifest with a fresh run id
func New(timestamp string, logs []domain.DeltaLog, summary string) *Manifest {
	return &Manifest{
		Version:   Version,
		RunID:     uuid.NewString(),
		Timestamp: timestamp,
		Logs:      logs,
		Summary:   summary,
	}
}

// Path returns the manifest path for a run timestamp
func Path(dir, timestamp string) string {
	return filepath.Join(dir, prefix+timestamp+extension)
}

// Write stores the manifest in dir and returns its path
func Write(dir string, m *Manifest) (string, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := Path(dir, m.Timestamp)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return path, nil
}

// Read loads the manifest at path
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: %d in %s", ErrUnsupportedVersion, m.Version, path)
	}
	return &m, nil
}

// Latest returns the manifest of the most recent run in dir, judged by the
// timestamp in its file name, together with its path.
func Latest(dir string) (*Manifest, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNoManifest
		}
		return nil, "", fmt.Errorf("failed to list manifests in %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && namePattern.MatchString(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, "", ErrNoManifest
	}

	sort.Strings(names)
	path := filepath.Join(dir, names[len(names)-1])
	m, err := Read(path)
	if err != nil {
		return nil, "", err
	}
	return m, path, nil
}
