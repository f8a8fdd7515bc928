// Package detect runs the detection pass: fetch every source, diff it against
// its previous snapshot, log the additions and summarise the run.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"sitewatch/pkg/deltalog"
	"sitewatch/pkg/domain"
	"sitewatch/pkg/logger"
	"sitewatch/pkg/manager"
	"sitewatch/pkg/manifest"
	"sitewatch/pkg/parser"
	"sitewatch/pkg/snapshot"
	"sitewatch/pkg/urls"
)

// Downloader saves the document at url to dest
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Archiver copies the files produced by a run somewhere durable
type Archiver interface {
	Archive(ctx context.Context, runTimestamp string, paths []string) (int, error)
}

// Config holds configuration for the service
type Config struct {
	Sources    []domain.Source
	SitemapDir string
	RSSDir     string
	LogDir     string
	Workers    int
	Downloader Downloader
	Archiver   Archiver // Optional
	Logger     logger.Interface
	Now        func() time.Time // Defaults to time.Now
}

// Service handles one detection pass over the configured sources
type Service struct {
	sources    []domain.Source
	stores     map[domain.SourceKind]*snapshot.Store
	logDir     string
	downloader Downloader
	archiver   Archiver
	manager    *manager.Manager
	logger     logger.Interface
	now        func() time.Time
}

// Report describes a finished run
type Report struct {
	RunID     string
	Timestamp string
	Results   []domain.SourceResult
	Logs      []domain.DeltaLog // Logs written by this run, in source order
	Summary   string            // Empty when no log was written
	Manifest  string
	Archived  int
}

// NewService creates a new detection service
func NewService(cfg Config) *Service {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Service{
		sources: cfg.Sources,
		stores: map[domain.SourceKind]*snapshot.Store{
			domain.SitemapSource: snapshot.NewStore(cfg.SitemapDir),
			domain.FeedSource:    snapshot.NewStore(cfg.RSSDir),
		},
		logDir:     cfg.LogDir,
		downloader: cfg.Downloader,
		archiver:   cfg.Archiver,
		logger:     log,
		now:        now,
	}
	s.manager = manager.NewManager(cfg.Workers, s, log)
	return s
}

// Run processes every source, then writes the summary and the run manifest.
// Per-source failures are reported in the results, never returned.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	for _, store := range s.stores {
		if err := store.EnsureDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(s.logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", s.logDir, err)
	}

	results := s.manager.ProcessSources(ctx, s.sources)

	report := &Report{Results: results}
	var produced []string
	for _, r := range results {
		if r.Snapshot != "" {
			produced = append(produced, r.Snapshot)
		}
		if r.Log != nil {
			report.Logs = append(report.Logs, *r.Log)
			produced = append(produced, r.Log.Path)
		}
	}

	report.Timestamp = domain.FormatTimestamp(s.now())

	summary, err := deltalog.WriteSummary(s.logDir, report.Timestamp, report.Logs)
	if err != nil {
		s.logger.Error("Failed to write summary", "error", err)
	} else if summary != "" {
		report.Summary = summary
		produced = append(produced, summary)
		s.logger.Info("Summary written", "path", summary, "logs", len(report.Logs))
	}

	m := manifest.New(report.Timestamp, report.Logs, report.Summary)
	report.RunID = m.RunID
	if path, err := manifest.Write(s.logDir, m); err != nil {
		s.logger.Error("Failed to write run manifest", "error", err)
	} else {
		report.Manifest = path
		produced = append(produced, path)
	}

	if s.archiver != nil && ctx.Err() == nil {
		n, err := s.archiver.Archive(ctx, report.Timestamp, produced)
		if err != nil {
			s.logger.Error("Failed to archive run", "error", err)
		}
		report.Archived = n
	}

	return report, nil
}

// ProcessSource runs fetch, parse, prior lookup, diff and log for one source
func (s *Service) ProcessSource(ctx context.Context, src domain.Source) domain.SourceResult {
	log := s.logger.With("source", src.Name, "kind", string(src.Kind))
	result := domain.SourceResult{Source: src}

	store, ok := s.stores[src.Kind]
	if !ok {
		result.Status = domain.StatusFailed
		result.Err = fmt.Errorf("unknown source kind %q", src.Kind)
		log.Error("Cannot process source", "error", result.Err)
		return result
	}

	timestamp := domain.FormatTimestamp(s.now())
	current := store.Path(src.Name, timestamp)

	log.Info("Fetching", "url", src.URL)
	if err := s.downloader.Download(ctx, src.URL, current); err != nil {
		result.Status = domain.StatusFailed
		result.Err = err
		log.Error("Download failed", "url", src.URL, "error", err)
		return result
	}
	result.Snapshot = current

	prior, err := store.Prior(src.Name, current)
	if err != nil {
		// treated like a first run
		log.Warn("Could not look up prior snapshot", "error", err)
		prior = nil
	}

	if prior != nil && sameContent(current, prior) {
		result.Status = domain.StatusUnchanged
		log.Info("Document unchanged since prior snapshot", "prior", prior.Path)
		return result
	}

	p, err := parser.ForKind(src.Kind)
	if err != nil {
		result.Status = domain.StatusFailed
		result.Err = err
		return result
	}

	newSet, err := p.ParseFile(current)
	if err != nil {
		if errors.Is(err, parser.ErrSitemapIndex) {
			result.Status = domain.StatusEmpty
			log.Warn("Sitemap index found, child sitemaps are not followed", "path", current)
			return result
		}
		result.Status = domain.StatusFailed
		result.Err = err
		log.Error("Parse failed", "path", current, "error", err)
		return result
	}
	if len(newSet) == 0 {
		result.Status = domain.StatusEmpty
		log.Warn("Document contains no URLs", "path", current)
		return result
	}

	var oldSet urls.Set
	if prior != nil {
		oldSet, err = p.ParseFile(prior.Path)
		if err != nil {
			log.Warn("Prior snapshot unreadable, comparing against nothing", "prior", prior.Path, "error", err)
		}
	}

	added := urls.Delta(newSet, oldSet)
	if len(added) == 0 {
		result.Status = domain.StatusNoChange
		log.Info("No new pages")
		return result
	}

	entry := &domain.DeltaLog{Source: src.Name, Timestamp: timestamp, URLs: added}
	if err := deltalog.Write(s.logDir, entry); err != nil {
		result.Status = domain.StatusFailed
		result.Err = err
		log.Error("Failed to write delta log", "error", err)
		return result
	}
	result.Log = entry

	if prior == nil {
		result.Status = domain.StatusFirstRun
		log.Info("First run, all pages logged", "count", entry.Count, "log", entry.Path)
	} else {
		result.Status = domain.StatusAdded
		log.Info("New pages logged", "count", entry.Count, "log", entry.Path)
	}
	return result
}

// sameContent reports whether the file at path is byte-identical to the prior snapshot
func sameContent(path string, prior *domain.Snapshot) bool {
	if err := snapshot.Fingerprint(prior); err != nil {
		return false
	}
	digest, err := snapshot.Digest(path)
	if err != nil {
		return false
	}
	return digest == prior.Digest
}
