// Package config holds the bookmark catalog's configuration object.
//
// A Config is built once at startup by Load and passed by pointer to the
// components that need it. Nothing in this package caches a global.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values shared with the packages that consume them.
const (
	DefaultCollection       = "bookmarks"
	DefaultPageSize         = 25
	DefaultFacetSize        = 500
	DefaultFragmentSize     = 300
	DefaultPreTag           = "<mark>"
	DefaultPostTag          = "</mark>"
	DefaultCursorTTL        = 5 * time.Minute
	DefaultExportBatchSize  = 500
	DefaultFetchTimeout     = 30 * time.Second
	DefaultMaxContentLength = 1000000
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:80.0) Gecko/20100101 Firefox/80.0"
	DefaultAddr             = ":8888"

	// ProjectConfigName is looked up in the working directory when no
	// explicit --config path is given.
	ProjectConfigName = "bookmarks.yaml"
)

// Config represents the complete bookmarks configuration.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Store   StoreConfig  `yaml:"store" json:"store"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Export  ExportConfig `yaml:"export" json:"export"`
	Ingest  IngestConfig `yaml:"ingest" json:"ingest"`
	Server  ServerConfig `yaml:"server" json:"server"`
}

// StoreConfig locates the document store.
type StoreConfig struct {
	// DataDir holds <collection>.bleve and the directory lock.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Collection is the collection (index) name.
	Collection string `yaml:"collection" json:"collection"`
	// InMemory keeps the collection in memory only.
	InMemory bool `yaml:"in_memory" json:"in_memory"`
}

// SearchConfig controls the query engine.
type SearchConfig struct {
	PageSize     int    `yaml:"page_size" json:"page_size"`
	FacetSize    int    `yaml:"facet_size" json:"facet_size"`
	FragmentSize int    `yaml:"fragment_size" json:"fragment_size"`
	PreTag       string `yaml:"pre_tag" json:"pre_tag"`
	PostTag      string `yaml:"post_tag" json:"post_tag"`
}

// ExportConfig controls cursor-based export.
type ExportConfig struct {
	CursorTTL time.Duration `yaml:"cursor_ttl" json:"cursor_ttl"`
	BatchSize int           `yaml:"batch_size" json:"batch_size"`
}

// IngestConfig controls content fetching for new bookmarks.
type IngestConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	// MaxConcurrentFetches limits in-flight fetches; 0 means one task per URL.
	MaxConcurrentFetches int    `yaml:"max_concurrent_fetches" json:"max_concurrent_fetches"`
	UserAgent            string `yaml:"user_agent" json:"user_agent"`
	MaxContentLength     int    `yaml:"max_content_length" json:"max_content_length"`
}

// ServerConfig controls the HTTP surface and logging.
type ServerConfig struct {
	Addr        string `yaml:"addr" json:"addr"`
	AllowWrites bool   `yaml:"allow_writes" json:"allow_writes"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			DataDir:    defaultDataDir(),
			Collection: DefaultCollection,
		},
		Search: SearchConfig{
			PageSize:     DefaultPageSize,
			FacetSize:    DefaultFacetSize,
			FragmentSize: DefaultFragmentSize,
			PreTag:       DefaultPreTag,
			PostTag:      DefaultPostTag,
		},
		Export: ExportConfig{
			CursorTTL: DefaultCursorTTL,
			BatchSize: DefaultExportBatchSize,
		},
		Ingest: IngestConfig{
			FetchTimeout:     DefaultFetchTimeout,
			UserAgent:        DefaultUserAgent,
			MaxContentLength: DefaultMaxContentLength,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			LogLevel: "info",
		},
	}
}

// defaultDataDir returns ~/.bookmarks/data.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".bookmarks", "data")
	}
	return filepath.Join(home, ".bookmarks", "data")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/bookmarks/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/bookmarks/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bookmarks", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "bookmarks", "config.yaml")
	}
	return filepath.Join(home, ".config", "bookmarks", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load builds the configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/bookmarks/config.yaml)
//  3. explicitPath, or ./bookmarks.yaml when explicitPath is empty
//  4. Environment variables (BOOKMARKS_*)
//
// An explicit path that does not exist is an error; a missing user or
// project file is not.
func Load(explicitPath string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	switch {
	case explicitPath != "":
		if !fileExists(explicitPath) {
			return nil, fmt.Errorf("config file not found: %s", explicitPath)
		}
		if err := cfg.loadYAML(explicitPath); err != nil {
			return nil, err
		}
	case fileExists(ProjectConfigName):
		if err := cfg.loadYAML(ProjectConfigName); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Store.DataDir != "" {
		c.Store.DataDir = other.Store.DataDir
	}
	if other.Store.Collection != "" {
		c.Store.Collection = other.Store.Collection
	}
	if other.Store.InMemory {
		c.Store.InMemory = true
	}

	if other.Search.PageSize != 0 {
		c.Search.PageSize = other.Search.PageSize
	}
	if other.Search.FacetSize != 0 {
		c.Search.FacetSize = other.Search.FacetSize
	}
	if other.Search.FragmentSize != 0 {
		c.Search.FragmentSize = other.Search.FragmentSize
	}
	if other.Search.PreTag != "" {
		c.Search.PreTag = other.Search.PreTag
	}
	if other.Search.PostTag != "" {
		c.Search.PostTag = other.Search.PostTag
	}

	if other.Export.CursorTTL != 0 {
		c.Export.CursorTTL = other.Export.CursorTTL
	}
	if other.Export.BatchSize != 0 {
		c.Export.BatchSize = other.Export.BatchSize
	}

	if other.Ingest.FetchTimeout != 0 {
		c.Ingest.FetchTimeout = other.Ingest.FetchTimeout
	}
	if other.Ingest.MaxConcurrentFetches != 0 {
		c.Ingest.MaxConcurrentFetches = other.Ingest.MaxConcurrentFetches
	}
	if other.Ingest.UserAgent != "" {
		c.Ingest.UserAgent = other.Ingest.UserAgent
	}
	if other.Ingest.MaxContentLength != 0 {
		c.Ingest.MaxContentLength = other.Ingest.MaxContentLength
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.AllowWrites {
		c.Server.AllowWrites = true
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies BOOKMARKS_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BOOKMARKS_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("BOOKMARKS_COLLECTION"); v != "" {
		c.Store.Collection = v
	}
	if v := os.Getenv("BOOKMARKS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	// Explicit false is honoured so an env var can turn writes back off.
	if v := os.Getenv("BOOKMARKS_ALLOW_WRITES"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Server.AllowWrites = b
		}
	}
	if v := os.Getenv("BOOKMARKS_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("BOOKMARKS_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			c.Ingest.FetchTimeout = d
		}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Collection) == "" {
		return fmt.Errorf("store.collection must not be empty")
	}
	if strings.ContainsAny(c.Store.Collection, `/\`) {
		return fmt.Errorf("store.collection must not contain path separators, got %q", c.Store.Collection)
	}
	if !c.Store.InMemory && c.Store.DataDir == "" {
		return fmt.Errorf("store.data_dir is required unless store.in_memory is set")
	}

	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be positive, got %d", c.Search.PageSize)
	}
	if c.Search.FacetSize <= 0 {
		return fmt.Errorf("search.facet_size must be positive, got %d", c.Search.FacetSize)
	}
	if c.Search.FragmentSize <= 0 {
		return fmt.Errorf("search.fragment_size must be positive, got %d", c.Search.FragmentSize)
	}
	if c.Search.PreTag == "" || c.Search.PostTag == "" {
		return fmt.Errorf("search.pre_tag and search.post_tag must not be empty")
	}

	if c.Export.CursorTTL <= 0 {
		return fmt.Errorf("export.cursor_ttl must be positive, got %s", c.Export.CursorTTL)
	}
	if c.Export.BatchSize <= 0 {
		return fmt.Errorf("export.batch_size must be positive, got %d", c.Export.BatchSize)
	}

	if c.Ingest.FetchTimeout < 0 {
		return fmt.Errorf("ingest.fetch_timeout must be non-negative, got %s", c.Ingest.FetchTimeout)
	}
	if c.Ingest.MaxConcurrentFetches < 0 {
		return fmt.Errorf("ingest.max_concurrent_fetches must be non-negative, got %d", c.Ingest.MaxConcurrentFetches)
	}
	if c.Ingest.MaxContentLength <= 0 {
		return fmt.Errorf("ingest.max_content_length must be positive, got %d", c.Ingest.MaxContentLength)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
