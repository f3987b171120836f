package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formai/internal/flagx"
	"github.com/dmitrijs2005/formai/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Fields left
// out of the file keep their previous value.
type JsonConfig struct {
	BackendURL     string         `json:"backend_url"`
	GRPCHealthAddr string         `json:"grpc_health_addr"`
	DataDir        string         `json:"data_dir"`
	UploadTimeout  timex.Duration `json:"upload_timeout"`
	HealthTimeout  timex.Duration `json:"health_timeout"`
	MaxRetries     *int           `json:"max_retries"`
	FreeScanLimit  *int           `json:"free_scan_limit"`
	Variant        string         `json:"variant"`

	Image struct {
		MaxDimension int     `json:"max_dimension"`
		Quality      float64 `json:"quality"`
		Format       string  `json:"format"`
		Lossless     *bool   `json:"lossless"`
	} `json:"image"`

	Prices struct {
		Monthly string `json:"monthly"`
		Annual  string `json:"annual"`
	} `json:"prices"`
	EntitlementKey string `json:"entitlement_key"`

	ImageStore struct {
		Kind      string `json:"kind"`
		Bucket    string `json:"bucket"`
		Region    string `json:"region"`
		Endpoint  string `json:"endpoint"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
	} `json:"image_store"`

	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	Verbose             *bool          `json:"verbose"`
}

// parseJson overlays cfg with the JSON file given by -c or -config. Without
// the flag nothing is loaded.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.GRPCHealthAddr, jc.GRPCHealthAddr)
	setString(&cfg.DataDir, jc.DataDir)
	if jc.UploadTimeout.Duration > 0 {
		cfg.UploadTimeout = jc.UploadTimeout.Duration
	}
	if jc.HealthTimeout.Duration > 0 {
		cfg.HealthTimeout = jc.HealthTimeout.Duration
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.FreeScanLimit != nil {
		cfg.FreeScanLimit = *jc.FreeScanLimit
	}
	setString(&cfg.Variant, jc.Variant)

	if jc.Image.MaxDimension > 0 {
		cfg.ImageMaxDimension = jc.Image.MaxDimension
	}
	if jc.Image.Quality != 0 {
		cfg.ImageQuality = jc.Image.Quality
	}
	setString(&cfg.ImageFormat, jc.Image.Format)
	if jc.Image.Lossless != nil {
		cfg.ImageLossless = *jc.Image.Lossless
	}

	setString(&cfg.PriceIDMonthly, jc.Prices.Monthly)
	setString(&cfg.PriceIDAnnual, jc.Prices.Annual)
	setString(&cfg.EntitlementKey, jc.EntitlementKey)

	setString(&cfg.ImageStore, jc.ImageStore.Kind)
	setString(&cfg.S3Bucket, jc.ImageStore.Bucket)
	setString(&cfg.S3Region, jc.ImageStore.Region)
	setString(&cfg.S3Endpoint, jc.ImageStore.Endpoint)
	setString(&cfg.S3AccessKey, jc.ImageStore.AccessKey)
	setString(&cfg.S3SecretKey, jc.ImageStore.SecretKey)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.Verbose != nil {
		cfg.Verbose = *jc.Verbose
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
