// Package snapshot names, lists and fingerprints the raw documents saved per source.
package snapshot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/cespare/xxhash/v2"

	"sitewatch/pkg/domain"
)

// Extension is the file extension of every snapshot
const Extension = ".xml"

// Store keeps the snapshots of one kind of document in a single directory
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the store directory if it does not exist
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir %s: %w", s.dir, err)
	}
	return nil
}

// Path returns the path of the snapshot of name taken at timestamp
func (s *Store) Path(name, timestamp string) string {
	return filepath.Join(s.dir, name+"_"+timestamp+Extension)
}

// namePattern matches <name>_<timestamp>.xml and nothing else, so that
// "Blog" never picks up "Blog_news_..." snapshots
func namePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})` + regexp.QuoteMeta(Extension) + `$`)
}

// List returns every snapshot of name, newest modification time first.
// Equal modification times are ordered by file name, later first.
func (s *Store) List(name string) ([]domain.Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots in %s: %w", s.dir, err)
	}

	pattern := namePattern(name)
	var snapshots []domain.Snapshot
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		snapshots = append(snapshots, domain.Snapshot{
			Source:    name,
			Path:      filepath.Join(s.dir, entry.Name()),
			Timestamp: m[1],
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].ModTime.Equal(snapshots[j].ModTime) {
			return snapshots[i].ModTime.After(snapshots[j].ModTime)
		}
		return snapshots[i].Path > snapshots[j].Path
	})

	return snapshots, nil
}

// Prior returns the most recently modified snapshot of name other than current.
// It returns nil when there is none.
func (s *Store) Prior(name, current string) (*domain.Snapshot, error) {
	snapshots, err := s.List(name)
	if err != nil {
		return nil, err
	}

	currentAbs, _ := filepath.Abs(current)
	for i := range snapshots {
		candidate, _ := filepath.Abs(snapshots[i].Path)
		if candidate == currentAbs {
			continue
		}
		return &snapshots[i], nil
	}

	return nil, nil
}

// Digest returns the xxhash of the file at path
func Digest(path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, file); err != nil {
		return 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum64(), nil
}

// Fingerprint fills in the digest of the snapshot
func Fingerprint(snap *domain.Snapshot) error {
	digest, err := Digest(snap.Path)
	if err != nil {
		return err
	}
	snap.Digest = digest
	return nil
}
