// Package config loads runtime configuration for the FormAI CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config (see parseJson).
//  3. FORMAI_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags).
//
// Supported flags
//
//	-a string     backend base URL
//	-g string     gRPC health address (empty uses HTTP /health)
//	-d string     data directory
//	-l int        free scan limit (0 = platform default)
//	-t duration   upload timeout
//	-i int        online status check interval (seconds)
//	-v            verbose logging
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "15s" or integer
// nanoseconds:
//
//	{
//	  "backend_url": "https://api.formai.app",
//	  "upload_timeout": "15s",
//	  "free_scan_limit": 2,
//	  "image": {"max_dimension": 1024, "quality": 0.8, "format": "webp"},
//	  "image_store": {"kind": "s3", "bucket": "scans", "endpoint": "http://localhost:9000"}
//	}
//
// Environment variables use the field names upper-cased, for example
// FORMAI_BACKEND_URL, FORMAI_UPLOAD_TIMEOUT, FORMAI_IMAGE_STORE or
// FORMAI_S3_BUCKET.
package config
