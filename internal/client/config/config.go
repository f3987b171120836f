package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/platform"
)

// Config holds runtime settings for the FormAI CLI.
//
// Durations are time.Duration values; zero FreeScanLimit selects the
// platform default.
type Config struct {
	BackendURL     string
	GRPCHealthAddr string
	DataDir        string

	UploadTimeout time.Duration
	HealthTimeout time.Duration
	MaxRetries    int

	FreeScanLimit int
	Variant       string

	ImageMaxDimension int
	ImageQuality      float64
	ImageFormat       string
	ImageLossless     bool

	PriceIDMonthly string
	PriceIDAnnual  string
	EntitlementKey string

	ImageStore  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	OnlineCheckInterval time.Duration
	Verbose             bool
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:3000"
	c.GRPCHealthAddr = ""
	c.DataDir = defaultDataDir()
	c.UploadTimeout = 15 * time.Second
	c.HealthTimeout = 5 * time.Second
	c.MaxRetries = 2
	c.FreeScanLimit = 0
	c.Variant = string(platform.VariantNative)
	c.ImageMaxDimension = 1024
	c.ImageQuality = 0.8
	c.ImageFormat = "webp"
	c.ImageStore = "fs"
	c.S3Region = "us-east-1"
	c.OnlineCheckInterval = 3 * time.Second
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "formai")
	}
	return ".formai"
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// FORMAI_* environment variables, then command-line flags. Later sources
// take precedence.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.BackendURL == "":
		return fmt.Errorf("config: backend url is empty")
	case c.DataDir == "":
		return fmt.Errorf("config: data dir is empty")
	case c.MaxRetries < 0:
		return fmt.Errorf("config: max retries %d is negative", c.MaxRetries)
	case c.FreeScanLimit < 0:
		return fmt.Errorf("config: free scan limit %d is negative", c.FreeScanLimit)
	case c.ImageQuality <= 0 || c.ImageQuality > 1:
		return fmt.Errorf("config: image quality %v is outside (0, 1]", c.ImageQuality)
	case c.OnlineCheckInterval <= 0:
		return fmt.Errorf("config: online check interval must be positive")
	}
	if _, err := platform.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DatabasePath is the SQLite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "formai.db")
}

// ImageDir is where the filesystem image store writes.
func (c *Config) ImageDir() string {
	return filepath.Join(c.DataDir, "images")
}
