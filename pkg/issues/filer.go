// Package issues files one tracker issue per delta log.
package issues

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sitewatch/pkg/config"
	"sitewatch/pkg/deltalog"
	"sitewatch/pkg/domain"
	"sitewatch/pkg/ledger"
	"sitewatch/pkg/logger"
	"sitewatch/pkg/manifest"
	"sitewatch/pkg/report"
)

// ResultSkipped is reported for logs the ledger already holds
const ResultSkipped = "skipped (already filed)"

// TitleResolver looks up a human readable title for a page
type TitleResolver interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Config wires the filer dependencies
type Config struct {
	LogDir    string
	Label     string
	Selection string        // config.SelectionManifest or config.SelectionWindow
	Window    time.Duration // used by the window selection only
	Tracker   IssueCreator
	Ledger    ledger.Ledger // optional
	Titles    TitleResolver // optional
	Logger    logger.Interface
	Now       func() time.Time
}

// Filer turns delta logs into issues
type Filer struct {
	cfg Config
	log logger.Interface
	now func() time.Time
}

// NewFiler validates cfg and fills in defaults
func NewFiler(cfg Config) (*Filer, error) {
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("issue tracker is required")
	}
	if cfg.LogDir == "" {
		return nil, fmt.Errorf("log dir is required")
	}
	if cfg.Selection == "" {
		cfg.Selection = config.SelectionManifest
	}
	if cfg.Selection != config.SelectionManifest && cfg.Selection != config.SelectionWindow {
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidSelection, cfg.Selection)
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.Noop{}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Filer{cfg: cfg, log: log, now: now}, nil
}

// selection is the set of logs one filer pass works on. With manifest
// selection it also carries the record of logs already filed for that run.
type selection struct {
	paths        []string
	manifestPath string
	filed        *manifest.Filed
}

// Select returns the paths of the delta logs this pass should file
func (f *Filer) Select() ([]string, error) {
	sel, err := f.selectLogs()
	if err != nil {
		return nil, err
	}
	return sel.paths, nil
}

func (f *Filer) selectLogs() (*selection, error) {
	if f.cfg.Selection == config.SelectionWindow {
		paths, err := deltalog.Recent(f.cfg.LogDir, f.cfg.Window, f.now())
		if err != nil {
			return nil, err
		}
		return &selection{paths: paths}, nil
	}

	m, path, err := manifest.Latest(f.cfg.LogDir)
	if errors.Is(err, manifest.ErrNoManifest) {
		f.log.Info("No run manifest found", "log_dir", f.cfg.LogDir)
		return &selection{}, nil
	}
	if err != nil {
		return nil, err
	}
	f.log.Debug("Using run manifest", "path", path, "run_id", m.RunID)

	filed, err := manifest.ReadFiled(path)
	if err != nil {
		return nil, err
	}
	filed.RunID = m.RunID

	sel := &selection{manifestPath: path, filed: filed}
	for _, l := range m.Logs {
		// logs always live next to the manifest
		sel.paths = append(sel.paths, filepath.Join(f.cfg.LogDir, filepath.Base(l.Path)))
	}
	return sel, nil
}

// FileAll files an issue for every selected log. A failing log is reported
// in its row and does not stop the others.
func (f *Filer) FileAll(ctx context.Context) ([]report.IssueRow, error) {
	sel, err := f.selectLogs()
	if err != nil {
		return nil, fmt.Errorf("failed to select logs: %w", err)
	}
	f.log.Info("Selected delta logs", "count", len(sel.paths), "selection", f.cfg.Selection)

	rows := make([]report.IssueRow, 0, len(sel.paths))
	for _, path := range sel.paths {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		rows = append(rows, f.fileOne(ctx, sel, path))
	}
	return rows, nil
}

func (f *Filer) fileOne(ctx context.Context, sel *selection, path string) report.IssueRow {
	key := filepath.Base(path)
	row := report.IssueRow{Log: key}
	log := f.log.With("log", key)

	if sel.filed != nil && sel.filed.Has(key) {
		log.Info("Log already filed for this run")
		row.Result = ResultSkipped
		return row
	}

	filed, err := f.cfg.Ledger.HasFiled(ctx, key)
	if err != nil {
		log.Warn("Ledger lookup failed", "error", err)
	} else if filed {
		log.Info("Log already filed")
		row.Result = ResultSkipped
		return row
	}

	dl, err := deltalog.ParseFile(path)
	if err != nil {
		log.Error("Failed to parse delta log", "error", err)
		row.Result = err.Error()
		return row
	}
	row.Source = dl.Source
	row.Count = dl.Count

	var labels []string
	if f.cfg.Label != "" {
		labels = []string{f.cfg.Label}
	}

	issueURL, err := f.cfg.Tracker.CreateIssue(ctx, Title(dl), Body(ctx, dl, f.cfg.Titles), labels)
	if err != nil {
		log.Error("Failed to create issue", "error", err)
		row.Result = err.Error()
		return row
	}
	log.Info("Issue created", "url", issueURL)
	row.Result = issueURL

	rec := domain.FiledIssue{LogKey: key, Source: dl.Source, IssueURL: issueURL, FiledAt: f.now()}
	if err := f.cfg.Ledger.RecordFiled(ctx, rec); err != nil {
		log.Warn("Failed to record filed issue", "error", err)
	}
	if sel.filed != nil {
		sel.filed.Add(key, rec.FiledAt)
		if err := manifest.WriteFiled(sel.manifestPath, sel.filed); err != nil {
			log.Warn("Failed to update filed record", "error", err)
		}
	}
	return row
}

// Title renders the issue title for a delta log
func Title(dl domain.DeltaLog) string {
	return fmt.Sprintf("[%s] 发现%d个新增页面 - %s", dl.Source, dl.Count, dl.Timestamp)
}

// Body renders the issue body. With a resolver, pages whose title resolves
// are rendered as markdown links.
func Body(ctx context.Context, dl domain.DeltaLog, titles TitleResolver) string {
	var b strings.Builder
	b.WriteString("### 检测时间\n")
	b.WriteString(dl.Timestamp)
	b.WriteString("\n\n### 新增页面\n")

	for _, u := range dl.URLs {
		b.WriteString("- ")
		b.WriteString(bullet(ctx, u, titles))
		b.WriteString("\n")
	}
	return b.String()
}

func bullet(ctx context.Context, pageURL string, titles TitleResolver) string {
	if titles == nil {
		return pageURL
	}
	title, err := titles.Resolve(ctx, strings.TrimSpace(pageURL))
	if err != nil || title == "" {
		return pageURL
	}
	return fmt.Sprintf("[%s](%s)", markdownEscaper.Replace(title), strings.TrimSpace(pageURL))
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`)
