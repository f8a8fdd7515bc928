// Package config loads and validates the sitewatch configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sitewatch/pkg/deltalog"
	"sitewatch/pkg/domain"
	"sitewatch/pkg/httpclient"
	"sitewatch/pkg/logger"
)

// DefaultPath is the configuration file read when none is given
const DefaultPath = "config.yaml"

// DefaultLogDir is the log directory used by the issue filer when storage.log_dir is unset
const DefaultLogDir = "logs"

// Issue selection modes
const (
	SelectionManifest = "manifest"
	SelectionWindow   = "window"
)

// Ledger backends
const (
	LedgerNone     = "none"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
	LedgerSupabase = "supabase"
	LedgerMongo    = "mongo"
)

// Configuration validation errors.
var (
	ErrConfigNotFound      = errors.New("config file not found")
	ErrMissingSitemapDir   = errors.New("storage.sitemap_dir is required")
	ErrMissingLogDir       = errors.New("storage.log_dir is required")
	ErrMissingRSSDir       = errors.New("storage.rss_dir is required")
	ErrWebsiteMissingName  = errors.New("website name is required")
	ErrWebsiteMissingURL   = errors.New("website needs a sitemap or rss url")
	ErrInvalidWebsiteName  = errors.New("website name must not contain path separators")
	ErrReservedWebsiteName = errors.New("website name must not start with the summary file prefix")
	ErrDuplicateWebsite    = errors.New("website names must be unique")
	ErrInvalidLogLevel     = errors.New("logger.level must be one of: debug, info, warn, error")
	ErrInvalidWorkers      = errors.New("run.workers must be at least 1")
	ErrInvalidTimeout      = errors.New("http.timeout must be non-negative")
	ErrInvalidSelection    = errors.New("issues.selection must be 'manifest' or 'window'")
	ErrInvalidWindow       = errors.New("issues.window must be positive")
	ErrMissingLabel        = errors.New("issues.label is required")
	ErrInvalidLedger       = errors.New("ledger.backend must be one of: none, sqlite, postgres, supabase, mongo")
	ErrMissingLedgerTarget = errors.New("ledger backend is missing its connection settings")
	ErrInvalidCollection   = errors.New("ledger.collection must be a plain identifier")
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the complete sitewatch configuration.
type Config struct {
	Storage  StorageConfig   `mapstructure:"storage"`
	Websites []WebsiteConfig `mapstructure:"websites"`
	Logger   logger.Config   `mapstructure:"logger"`
	HTTP     HTTPConfig      `mapstructure:"http"`
	Run      RunConfig       `mapstructure:"run"`
	Issues   IssuesConfig    `mapstructure:"issues"`
	Ledger   LedgerConfig    `mapstructure:"ledger"`
	Archive  ArchiveConfig   `mapstructure:"archive"`
}

// StorageConfig holds the directories snapshots and logs are written to.
type StorageConfig struct {
	SitemapDir string `mapstructure:"sitemap_dir"`
	LogDir     string `mapstructure:"log_dir"`
	RSSDir     string `mapstructure:"rss_dir"`
}

// WebsiteConfig is one watched website. Sitemap wins when both URLs are set.
type WebsiteConfig struct {
	Name    string `mapstructure:"name"`
	Sitemap string `mapstructure:"sitemap"`
	RSS     string `mapstructure:"rss"`
}

// HTTPConfig selects the request header profile and client timeout.
type HTTPConfig struct {
	Client  string        `mapstructure:"client"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RunConfig controls the detection pass.
type RunConfig struct {
	Workers int `mapstructure:"workers"`
}

// IssuesConfig controls the issue filer.
type IssuesConfig struct {
	Label         string        `mapstructure:"label"`
	Selection     string        `mapstructure:"selection"`
	Window        time.Duration `mapstructure:"window"`
	ResolveTitles bool          `mapstructure:"resolve_titles"`
}

// LedgerConfig selects where filed issues are recorded.
type LedgerConfig struct {
	Backend     string `mapstructure:"backend"`
	Path        string `mapstructure:"path"`
	DSN         string `mapstructure:"dsn"`
	SupabaseURL string `mapstructure:"supabase_url"`
	SupabaseKey string `mapstructure:"supabase_key"`
	Password    string `mapstructure:"password"`
	MongoURI    string `mapstructure:"mongo_uri"`
	Database    string `mapstructure:"database"`
	Collection  string `mapstructure:"collection"`
}

// ArchiveConfig enables uploading run artifacts to S3.
type ArchiveConfig struct {
	S3Bucket     string `mapstructure:"s3_bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Enabled reports whether an archive bucket is configured
func (a ArchiveConfig) Enabled() bool {
	return a.S3Bucket != ""
}

// Load reads the YAML file at path (DefaultPath when empty) with environment overrides.
// The result is not validated; call ValidateRun or ValidateFiler.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// LoadOptional is Load, except that a missing file yields the defaults
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrConfigNotFound) {
		return unmarshal(newViper())
	}
	return cfg, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SITEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// LOG_LEVEL is honoured without the prefix
	_ = v.BindEnv("logger.level", "SITEWATCH_LOGGER_LEVEL", "LOG_LEVEL")
	setDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values. Storage directories have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.development", false)

	v.SetDefault("http.client", string(httpclient.DefaultClient))
	v.SetDefault("http.timeout", "0s")

	v.SetDefault("run.workers", 1)

	v.SetDefault("issues.label", "新增页面")
	v.SetDefault("issues.selection", SelectionManifest)
	v.SetDefault("issues.window", "60s")
	v.SetDefault("issues.resolve_titles", false)

	v.SetDefault("ledger.backend", LedgerNone)
	v.SetDefault("ledger.path", "")
	v.SetDefault("ledger.dsn", "")
	v.SetDefault("ledger.supabase_url", "")
	v.SetDefault("ledger.supabase_key", "")
	v.SetDefault("ledger.password", "")
	v.SetDefault("ledger.mongo_uri", "")
	v.SetDefault("ledger.database", "sitewatch")
	v.SetDefault("ledger.collection", "filed_logs")

	v.SetDefault("archive.s3_bucket", "")
	v.SetDefault("archive.prefix", "")
	v.SetDefault("archive.region", "")
	v.SetDefault("archive.use_path_style", false)
}

// ValidateRun validates everything the detection pass needs.
func (c *Config) ValidateRun() error {
	if c.Storage.SitemapDir == "" {
		return ErrMissingSitemapDir
	}
	if c.Storage.LogDir == "" {
		return ErrMissingLogDir
	}
	if c.Storage.RSSDir == "" {
		return ErrMissingRSSDir
	}

	seen := make(map[string]bool, len(c.Websites))
	for i, w := range c.Websites {
		if w.Name == "" {
			return fmt.Errorf("%w: websites[%d]", ErrWebsiteMissingName, i)
		}
		if strings.ContainsAny(w.Name, `/\`) {
			return fmt.Errorf("%w: %q", ErrInvalidWebsiteName, w.Name)
		}
		// its delta logs would be taken for run summaries
		if strings.HasPrefix(w.Name+"_", deltalog.SummaryPrefix) {
			return fmt.Errorf("%w: %q", ErrReservedWebsiteName, w.Name)
		}
		if w.Sitemap == "" && w.RSS == "" {
			return fmt.Errorf("%w: %s", ErrWebsiteMissingURL, w.Name)
		}
		if seen[w.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateWebsite, w.Name)
		}
		seen[w.Name] = true
	}

	if c.Run.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.HTTP.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if _, err := httpclient.ParseClientType(c.HTTP.Client); err != nil {
		return err
	}

	return c.validateCommon()
}

// ValidateFiler validates everything the issue filer needs.
func (c *Config) ValidateFiler() error {
	switch c.Issues.Selection {
	case SelectionManifest, SelectionWindow:
	default:
		return ErrInvalidSelection
	}
	if c.Issues.Window <= 0 {
		return ErrInvalidWindow
	}
	if c.Issues.Label == "" {
		return ErrMissingLabel
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return ErrInvalidLogLevel
	}
}

func (c *Config) validateLedger() error {
	l := c.Ledger
	switch l.Backend {
	case "", LedgerNone:
		return nil
	case LedgerSQLite:
		if l.Path == "" {
			return fmt.Errorf("%w: sqlite needs ledger.path", ErrMissingLedgerTarget)
		}
	case LedgerPostgres:
		if l.DSN == "" {
			return fmt.Errorf("%w: postgres needs ledger.dsn", ErrMissingLedgerTarget)
		}
	case LedgerSupabase:
		if l.DSN == "" && (l.SupabaseURL == "" || (l.SupabaseKey == "" && l.Password == "")) {
			return fmt.Errorf("%w: supabase needs ledger.dsn or ledger.supabase_url with a key or password", ErrMissingLedgerTarget)
		}
	case LedgerMongo:
		if l.MongoURI == "" || l.Database == "" {
			return fmt.Errorf("%w: mongo needs ledger.mongo_uri and ledger.database", ErrMissingLedgerTarget)
		}
	default:
		return ErrInvalidLedger
	}

	if !identifierPattern.MatchString(l.Collection) {
		return ErrInvalidCollection
	}
	return nil
}

// LogDir returns the log directory, falling back to DefaultLogDir
func (c *Config) LogDir() string {
	if c.Storage.LogDir == "" {
		return DefaultLogDir
	}
	return c.Storage.LogDir
}

// Sources converts the website entries into domain sources
func (c *Config) Sources() []domain.Source {
	sources := make([]domain.Source, 0, len(c.Websites))
	for _, w := range c.Websites {
		switch {
		case w.Sitemap != "":
			sources = append(sources, domain.Source{Name: w.Name, Kind: domain.SitemapSource, URL: w.Sitemap})
		case w.RSS != "":
			sources = append(sources, domain.Source{Name: w.Name, Kind: domain.FeedSource, URL: w.RSS})
		}
	}
	return sources
}

// SnapshotDir returns the directory snapshots of the given kind are stored in
func (c *Config) SnapshotDir(kind domain.SourceKind) string {
	if kind == domain.FeedSource {
		return c.Storage.RSSDir
	}
	return c.Storage.SitemapDir
}
