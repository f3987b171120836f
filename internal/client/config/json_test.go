package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"backend_url":     "https://api.example",
		"upload_timeout":  "30s",
		"health_timeout":  int64(2 * time.Second),
		"max_retries":     0,
		"free_scan_limit": 5,
		"image":           map[string]any{"max_dimension": 800, "quality": 0.6, "format": "jpeg", "lossless": true},
		"prices":          map[string]any{"monthly": "price_m"},
		"image_store":     map[string]any{"kind": "s3", "bucket": "scans", "endpoint": "http://minio:9000"},
		"verbose":         true,
	})

	t.Run("loads from -config", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "https://api.example", cfg.BackendURL)
		assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
		assert.Equal(t, 2*time.Second, cfg.HealthTimeout)
		assert.Equal(t, 0, cfg.MaxRetries)
		assert.Equal(t, 5, cfg.FreeScanLimit)
		assert.Equal(t, 800, cfg.ImageMaxDimension)
		assert.InDelta(t, 0.6, cfg.ImageQuality, 1e-9)
		assert.Equal(t, "jpeg", cfg.ImageFormat)
		assert.True(t, cfg.ImageLossless)
		assert.Equal(t, "price_m", cfg.PriceIDMonthly)
		assert.Equal(t, "s3", cfg.ImageStore)
		assert.Equal(t, "scans", cfg.S3Bucket)
		assert.Equal(t, "us-east-1", cfg.S3Region, "absent fields keep defaults")
		assert.True(t, cfg.Verbose)
	})

	t.Run("no flag leaves config unchanged", func(t *testing.T) {
		cfg := &Config{BackendURL: "defaults:1234", OnlineCheckInterval: 42 * time.Second}
		require.NoError(t, parseJson(cfg, []string{"status"}))
		assert.Equal(t, "defaults:1234", cfg.BackendURL)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		assert.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, parseJson(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})
}
