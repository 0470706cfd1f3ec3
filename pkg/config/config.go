package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for civsync
type Config struct {
	// Civitai API settings
	Civitai CivitaiConfig `yaml:"civitai" json:"civitai"`

	// Listing query defaults
	Query QueryConfig `yaml:"query" json:"query"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// CivitaiConfig holds Civitai-specific configuration
type CivitaiConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	APIToken       string        `yaml:"api_token" json:"api_token"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	ListingTimeout time.Duration `yaml:"listing_timeout" json:"listing_timeout"`
	AssetTimeout   time.Duration `yaml:"asset_timeout" json:"asset_timeout"`
	PageInterval   time.Duration `yaml:"page_interval" json:"page_interval"`
}

// QueryConfig holds the listing query defaults
type QueryConfig struct {
	PageSize int    `yaml:"page_size" json:"page_size"`
	Sort     string `yaml:"sort" json:"sort"`
	Period   string `yaml:"period" json:"period"`
	NSFW     string `yaml:"nsfw" json:"nsfw"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ReportsSubdir string `yaml:"reports_subdir" json:"reports_subdir"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	ConcurrentDownloads int `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	JPEGQuality         int `yaml:"jpeg_quality" json:"jpeg_quality"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Civitai: CivitaiConfig{
			BaseURL:        "https://civitai.com/api/v1",
			UserAgent:      "civsync/1.0",
			ListingTimeout: 20 * time.Second,
			AssetTimeout:   30 * time.Second,
			PageInterval:   time.Second,
		},
		Query: QueryConfig{
			PageSize: 100,
			Sort:     "Newest",
			Period:   "AllTime",
			NSFW:     "None",
		},
		Output: OutputConfig{
			BaseDirectory: "./output",
			ReportsSubdir: "reports",
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 10,
			JPEGQuality:         85,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("CIVITAI_API_TOKEN"); token != "" {
		c.Civitai.APIToken = token
	}
	if baseURL := os.Getenv("CIVSYNC_BASE_URL"); baseURL != "" {
		c.Civitai.BaseURL = baseURL
	}
	if outputDir := os.Getenv("CIVSYNC_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent := os.Getenv("CIVSYNC_CONCURRENT_DOWNLOADS"); concurrent != "" {
		var val int
		fmt.Sscanf(concurrent, "%d", &val)
		if val > 0 {
			c.Download.ConcurrentDownloads = val
		}
	}
	if quality := os.Getenv("CIVSYNC_JPEG_QUALITY"); quality != "" {
		var val int
		fmt.Sscanf(quality, "%d", &val)
		if val > 0 {
			c.Download.JPEGQuality = val
		}
	}
	if logLevel := os.Getenv("CIVSYNC_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".civsync.yaml",
		".civsync.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "civsync", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "civsync", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".civsync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Civitai.BaseURL == "" {
		errs = append(errs, errors.New("Civitai base URL is required"))
	}
	if c.Civitai.ListingTimeout <= 0 {
		errs = append(errs, errors.New("listing timeout must be positive"))
	}
	if c.Civitai.AssetTimeout <= 0 {
		errs = append(errs, errors.New("asset timeout must be positive"))
	}

	if c.Query.PageSize < 1 || c.Query.PageSize > 200 {
		errs = append(errs, errors.New("page size must be between 1 and 200"))
	}
	validSorts := map[string]bool{
		"Newest": true, "Most Reactions": true, "Most Comments": true,
	}
	if !validSorts[c.Query.Sort] {
		errs = append(errs, errors.New("invalid sort order"))
	}
	validPeriods := map[string]bool{
		"AllTime": true, "Year": true, "Month": true, "Week": true, "Day": true,
	}
	if !validPeriods[c.Query.Period] {
		errs = append(errs, errors.New("invalid time period"))
	}
	validNSFW := map[string]bool{
		"None": true, "Soft": true, "Mature": true, "X": true,
	}
	if !validNSFW[c.Query.NSFW] {
		errs = append(errs, errors.New("invalid nsfw filter"))
	}

	if c.Download.ConcurrentDownloads < 1 || c.Download.ConcurrentDownloads > 32 {
		errs = append(errs, errors.New("concurrent downloads must be between 1 and 32"))
	}
	if c.Download.JPEGQuality < 1 || c.Download.JPEGQuality > 95 {
		errs = append(errs, errors.New("jpeg quality must be between 1 and 95"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if quality, ok := flags["jpeg-quality"].(int); ok && quality > 0 {
		c.Download.JPEGQuality = quality
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Query.PageSize = pageSize
	}
	if sort, ok := flags["sort"].(string); ok && sort != "" {
		c.Query.Sort = sort
	}
	if period, ok := flags["period"].(string); ok && period != "" {
		c.Query.Period = period
	}
	if nsfw, ok := flags["nsfw"].(string); ok && nsfw != "" {
		c.Query.NSFW = nsfw
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".civsync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
