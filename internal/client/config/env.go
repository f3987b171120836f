package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key, e.g. FORMAI_BACKEND_URL.
const EnvPrefix = "FORMAI"

// parseEnv overlays cfg with FORMAI_* variables. Only variables that are set
// are applied; malformed numbers and durations are reported.
func parseEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	strs := map[string]*string{
		"backend_url":      &cfg.BackendURL,
		"grpc_health_addr": &cfg.GRPCHealthAddr,
		"data_dir":         &cfg.DataDir,
		"variant":          &cfg.Variant,
		"image_format":     &cfg.ImageFormat,
		"price_id_monthly": &cfg.PriceIDMonthly,
		"price_id_annual":  &cfg.PriceIDAnnual,
		"entitlement_key":  &cfg.EntitlementKey,
		"image_store":      &cfg.ImageStore,
		"s3_bucket":        &cfg.S3Bucket,
		"s3_region":        &cfg.S3Region,
		"s3_endpoint":      &cfg.S3Endpoint,
		"s3_access_key":    &cfg.S3AccessKey,
		"s3_secret_key":    &cfg.S3SecretKey,
	}
	for key, dst := range strs {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	durations := map[string]*time.Duration{
		"upload_timeout":        &cfg.UploadTimeout,
		"health_timeout":        &cfg.HealthTimeout,
		"online_check_interval": &cfg.OnlineCheckInterval,
	}
	for key, dst := range durations {
		if !v.IsSet(key) {
			continue
		}
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return envError(key, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"max_retries":         &cfg.MaxRetries,
		"free_scan_limit":     &cfg.FreeScanLimit,
		"image_max_dimension": &cfg.ImageMaxDimension,
	}
	for key, dst := range ints {
		if !v.IsSet(key) {
			continue
		}
		n, err := strconv.Atoi(v.GetString(key))
		if err != nil {
			return envError(key, err)
		}
		*dst = n
	}

	if v.IsSet("image_quality") {
		q, err := strconv.ParseFloat(v.GetString("image_quality"), 64)
		if err != nil {
			return envError("image_quality", err)
		}
		cfg.ImageQuality = q
	}
	if v.IsSet("image_lossless") {
		b, err := strconv.ParseBool(v.GetString("image_lossless"))
		if err != nil {
			return envError("image_lossless", err)
		}
		cfg.ImageLossless = b
	}
	if v.IsSet("verbose") {
		b, err := strconv.ParseBool(v.GetString("verbose"))
		if err != nil {
			return envError("verbose", err)
		}
		cfg.Verbose = b
	}
	return nil
}

func envError(key string, err error) error {
	return fmt.Errorf("config: env %s_%s: %w", EnvPrefix, strings.ToUpper(key), err)
}
