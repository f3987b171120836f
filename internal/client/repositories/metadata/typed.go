package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Typed values are stored as text: bools as "1"/"0", ints in decimal,
// times as RFC 3339 in UTC.

func EncodeBool(v bool) []byte {
	if v {
		return []byte("1")
	}
	return []byte("0")
}

func EncodeInt(v int) []byte { return []byte(strconv.Itoa(v)) }

func EncodeTime(t time.Time) []byte { return []byte(t.UTC().Format(time.RFC3339Nano)) }

func GetString(ctx context.Context, r Repository, key string) (string, error) {
	v, err := r.Get(ctx, key)
	return string(v), err
}

// GetBool returns false for a missing key.
func GetBool(ctx context.Context, r Repository, key string) (bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil || v == nil {
		return false, err
	}
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return b, nil
}

// GetInt returns 0 for a missing key.
func GetInt(ctx context.Context, r Repository, key string) (int, error) {
	v, err := r.Get(ctx, key)
	if err != nil || len(v) == 0 {
		return 0, err
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return n, nil
}

// GetTime returns nil for a missing or empty key.
func GetTime(ctx context.Context, r Repository, key string) (*time.Time, error) {
	v, err := r.Get(ctx, key)
	if err != nil || len(v) == 0 {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return nil, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return &t, nil
}

// GetJSON decodes the value into dst. It reports false when the key is missing.
func GetJSON(ctx context.Context, r Repository, key string, dst any) (bool, error) {
	v, err := r.Get(ctx, key)
	if err != nil || len(v) == 0 {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, r Repository, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("metadata[%s]: %w", key, err)
	}
	return r.Set(ctx, key, data)
}
