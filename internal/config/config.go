package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where the original defaults were known
// to work well for unattended crawls, they are kept.
const (
	// DefaultMaxPages bounds the crawl so a site with generated or
	// cyclic URLs cannot run forever.
	DefaultMaxPages = 200

	// DefaultDelay is the base politeness delay between fetches.
	DefaultDelay = 200 * time.Millisecond

	// DefaultTimeout is the per-request HTTP timeout. A fetch exceeding
	// it is recorded as failed, never treated as crawl-fatal.
	DefaultTimeout = 15 * time.Second

	// DefaultAssetTimeout is the per-asset download timeout. Assets can
	// be larger than pages, so it is more generous.
	DefaultAssetTimeout = 20 * time.Second

	// DefaultSaveEvery is the checkpoint cadence in processed pages.
	DefaultSaveEvery = 10

	// DefaultUserAgent identifies the crawler in HTTP requests and in
	// robots.txt evaluation.
	DefaultUserAgent = "mdcrawl/1.0 (+https://github.com/mdcrawl/mdcrawl)"

	// DefaultOutputDir is where documents land when -o is not given.
	DefaultOutputDir = "site_markdown"

	// DefaultMaxBodySize limits how much of a response body is read.
	// Pages larger than this are truncated rather than exhausting memory.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultAssetConcurrency bounds parallel asset downloads per page.
	DefaultAssetConcurrency = 4

	// CheckpointFileName is the default checkpoint file name, placed
	// inside the output directory.
	CheckpointFileName = ".crawl_state.json"

	// AppName is the application name used for XDG directory paths.
	AppName = "mdcrawl"
)

// Config holds all settings for a crawl run. It is populated from CLI
// flags and passed through the application by dependency injection
// rather than global state.
type Config struct {
	// RootURL is the crawl starting point. Its host defines the scope.
	RootURL string

	// OutputDir is where converted documents and assets are written.
	OutputDir string

	// MaxPages bounds the number of pages processed in this run.
	MaxPages int

	// RespectRobots enables the robots.txt gate. When false every URL
	// is allowed.
	RespectRobots bool

	// UserAgent is sent with every request and used for robots matching.
	UserAgent string

	// Delay is the base politeness delay between fetches.
	Delay time.Duration

	// Jitter is the maximum random adjustment applied to Delay, in
	// either direction.
	Jitter time.Duration

	// Timeout is the per-request HTTP timeout for page fetches.
	Timeout time.Duration

	// AssetTimeout is the per-request timeout for asset downloads.
	AssetTimeout time.Duration

	// MaxBodySize caps how many response bytes are read per request.
	MaxBodySize int64

	// AssetConcurrency bounds parallel asset downloads for one page.
	AssetConcurrency int

	// CheckpointFile is the checkpoint path. Empty means
	// <OutputDir>/.crawl_state.json.
	CheckpointFile string

	// Resume restores state from an existing checkpoint before crawling.
	Resume bool

	// SaveEvery is the checkpoint cadence in successfully processed pages.
	SaveEvery int

	// Frontmatter controls the YAML header on emitted documents.
	Frontmatter bool

	// Archive enables the SQLite crawl archive.
	Archive bool

	// ArchiveDir is the directory holding the archive database.
	// Defaults to the XDG data directory for mdcrawl.
	ArchiveDir string

	// ConfigFilePath is an explicit path to the .mdcrawl YAML file.
	// Empty means search the working and home directories.
	ConfigFilePath string

	// Sites holds per-host overrides loaded from the config file.
	Sites *File
}

// NewConfig returns a Config populated with defaults. Many defaults are
// non-zero, so relying on zero values would be wrong.
func NewConfig() *Config {
	return &Config{
		OutputDir:        DefaultOutputDir,
		MaxPages:         DefaultMaxPages,
		RespectRobots:    true,
		UserAgent:        DefaultUserAgent,
		Delay:            DefaultDelay,
		Timeout:          DefaultTimeout,
		AssetTimeout:     DefaultAssetTimeout,
		MaxBodySize:      DefaultMaxBodySize,
		AssetConcurrency: DefaultAssetConcurrency,
		SaveEvery:        DefaultSaveEvery,
		Frontmatter:      true,
		ArchiveDir:       XDGDataDir(),
		Sites:            &File{Hosts: make(map[string]SiteConfig)},
	}
}

// XDGDataDir returns the XDG data directory for mdcrawl.
// On Linux: ~/.local/share/mdcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// CheckpointPath returns the effective checkpoint file location.
func (c *Config) CheckpointPath() string {
	if c.CheckpointFile != "" {
		return c.CheckpointFile
	}
	return filepath.Join(c.OutputDir, CheckpointFileName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once after CLI parsing, before any network request.
func (c *Config) Validate() error {
	if c.RootURL == "" {
		return ErrNoRootURL
	}
	u, err := url.Parse(c.RootURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidRootURL, c.RootURL)
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Jitter < 0 {
		return ErrInvalidJitter
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SaveEvery <= 0 {
		return ErrInvalidSaveEvery
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// Fingerprint derives the value that must match between a checkpoint
// and a resume invocation: the scope-defining parameters. A mismatch
// means the checkpoint was written under different assumptions and must
// not be silently reused.
func (c *Config) Fingerprint() string {
	u, err := url.Parse(c.RootURL)
	host := c.RootURL
	if err == nil && u.Host != "" {
		host = u.Host
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "v%d|host=%s|max-pages=%d", 1, host, c.MaxPages))
	return hex.EncodeToString(sum[:8])
}
