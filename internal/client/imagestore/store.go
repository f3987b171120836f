// Package imagestore archives uploaded scan images and returns a reference
// that is kept with the scan history entry.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind selects a Store implementation.
type Kind string

const (
	KindNone Kind = "none"
	KindFS   Kind = "fs"
	KindS3   Kind = "s3"
)

var ErrUnknownKind = errors.New("unknown image store kind")

// Store persists image bytes under key and returns a reference string.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Config selects and configures a store.
type Config struct {
	Kind Kind
	// Dir is the root directory for KindFS.
	Dir string
	S3  S3Config
}

// New builds the store selected by cfg.Kind. Empty kind means KindFS.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case KindNone:
		return Nop{}, nil
	case KindFS, "":
		return NewFSStore(cfg.Dir)
	case KindS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// NewKey returns a unique key such as "scans/2026/3/1/<uuid>.webp".
func NewKey(now time.Time, ext string) string {
	return fmt.Sprintf("scans/%d/%d/%d/%v%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

// Nop discards images.
type Nop struct{}

func (Nop) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", nil
}
