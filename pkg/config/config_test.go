package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitewatch/pkg/domain"
)

// Helper to create a temp config file.
func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath
}

// validConfigYAML is a minimal valid configuration.
const validConfigYAML = `
storage:
  sitemap_dir: sitemaps
  log_dir: logs
  rss_dir: rss
websites:
  - name: Blog
    sitemap: https://example.com/sitemap.xml
  - name: News
    rss: https://example.com/feed.xml
  - name: Both
    sitemap: https://both.example/sitemap.xml
    rss: https://both.example/feed.xml
`

func TestLoad_ValidConfigWithDefaults(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateRun())
	require.NoError(t, cfg.ValidateFiler())

	assert.Equal(t, "sitemaps", cfg.Storage.SitemapDir)
	assert.Equal(t, "logs", cfg.Storage.LogDir)
	assert.Equal(t, "rss", cfg.Storage.RSSDir)
	assert.Equal(t, 1, cfg.Run.Workers)
	assert.Equal(t, "新增页面", cfg.Issues.Label)
	assert.Equal(t, SelectionManifest, cfg.Issues.Selection)
	assert.Equal(t, 60*time.Second, cfg.Issues.Window)
	assert.Equal(t, LedgerNone, cfg.Ledger.Backend)
	assert.Equal(t, "filed_logs", cfg.Ledger.Collection)
	assert.False(t, cfg.Archive.Enabled())
}

func TestSources_SitemapTakesPrecedence(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	sources := cfg.Sources()
	require.Len(t, sources, 3)
	assert.Equal(t, domain.Source{Name: "Blog", Kind: domain.SitemapSource, URL: "https://example.com/sitemap.xml"}, sources[0])
	assert.Equal(t, domain.Source{Name: "News", Kind: domain.FeedSource, URL: "https://example.com/feed.xml"}, sources[1])
	assert.Equal(t, domain.SitemapSource, sources[2].Kind)
	assert.Equal(t, "https://both.example/sitemap.xml", sources[2].URL)

	assert.Equal(t, "rss", cfg.SnapshotDir(domain.FeedSource))
	assert.Equal(t, "sitemaps", cfg.SnapshotDir(domain.SitemapSource))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadOptional_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultLogDir, cfg.LogDir())
	assert.NoError(t, cfg.ValidateFiler())
	assert.ErrorIs(t, cfg.ValidateRun(), ErrMissingSitemapDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "storage: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_LogLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "missing sitemap dir",
			yaml:    "storage: {log_dir: logs, rss_dir: rss}",
			wantErr: ErrMissingSitemapDir,
		},
		{
			name:    "missing log dir",
			yaml:    "storage: {sitemap_dir: s, rss_dir: rss}",
			wantErr: ErrMissingLogDir,
		},
		{
			name:    "missing rss dir",
			yaml:    "storage: {sitemap_dir: s, log_dir: logs}",
			wantErr: ErrMissingRSSDir,
		},
		{
			name: "website without url",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - name: Blog`,
			wantErr: ErrWebsiteMissingURL,
		},
		{
			name: "website without name",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - sitemap: https://example.com/sitemap.xml`,
			wantErr: ErrWebsiteMissingName,
		},
		{
			name: "name with separator",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - {name: a/b, sitemap: https://example.com/sitemap.xml}`,
			wantErr: ErrInvalidWebsiteName,
		},
		{
			name: "summary is reserved",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - {name: summary, sitemap: https://example.com/sitemap.xml}`,
			wantErr: ErrReservedWebsiteName,
		},
		{
			name: "summary prefix is reserved",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - {name: summary_weekly, rss: https://example.com/feed.xml}`,
			wantErr: ErrReservedWebsiteName,
		},
		{
			name: "summary inside a name is fine",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - {name: Summary, sitemap: https://example.com/sitemap.xml}
  - {name: weeklysummary, rss: https://example.com/feed.xml}`,
		},
		{
			name: "duplicate names",
			yaml: `storage: {sitemap_dir: s, log_dir: l, rss_dir: r}
websites:
  - {name: Blog, sitemap: https://example.com/sitemap.xml}
  - {name: Blog, rss: https://example.com/feed.xml}`,
			wantErr: ErrDuplicateWebsite,
		},
		{
			name:    "zero workers",
			yaml:    "storage: {sitemap_dir: s, log_dir: l, rss_dir: r}\nrun: {workers: 0}",
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "bad log level",
			yaml:    "storage: {sitemap_dir: s, log_dir: l, rss_dir: r}\nlogger: {level: loud}",
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "no websites is valid",
			yaml: "storage: {sitemap_dir: s, log_dir: l, rss_dir: r}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(createTempConfigFile(t, tt.yaml))
			require.NoError(t, err)

			err = cfg.ValidateRun()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRun_UnknownHTTPClient(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, "storage: {sitemap_dir: s, log_dir: l, rss_dir: r}\nhttp: {client: lynx}"))
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateRun())
}

func TestValidateFiler(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "bad selection", yaml: "issues: {selection: latest}", wantErr: ErrInvalidSelection},
		{name: "zero window", yaml: "issues: {selection: window, window: 0s}", wantErr: ErrInvalidWindow},
		{name: "empty label", yaml: `issues: {label: ""}`, wantErr: ErrMissingLabel},
		{name: "unknown ledger", yaml: "ledger: {backend: redis}", wantErr: ErrInvalidLedger},
		{name: "sqlite without path", yaml: "ledger: {backend: sqlite}", wantErr: ErrMissingLedgerTarget},
		{name: "postgres without dsn", yaml: "ledger: {backend: postgres}", wantErr: ErrMissingLedgerTarget},
		{name: "supabase url without key", yaml: "ledger: {backend: supabase, supabase_url: https://x.supabase.co}", wantErr: ErrMissingLedgerTarget},
		{name: "mongo without uri", yaml: "ledger: {backend: mongo}", wantErr: ErrMissingLedgerTarget},
		{name: "bad collection", yaml: "ledger: {backend: sqlite, path: l.db, collection: \"x; drop\"}", wantErr: ErrInvalidCollection},
		{name: "sqlite ok", yaml: "ledger: {backend: sqlite, path: l.db}"},
		{name: "supabase rest ok", yaml: "ledger: {backend: supabase, supabase_url: https://x.supabase.co, supabase_key: k}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(createTempConfigFile(t, tt.yaml))
			require.NoError(t, err)

			err = cfg.ValidateFiler()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
