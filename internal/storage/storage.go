package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cfg "github.com/templui/goalkeeper/internal/config"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// KV is a flat key-value byte store. It backs local mode, where there is
// no user identity and the whole goal list lives under one key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// New creates the key-value store selected by STORAGE_DRIVER.
func New(c *cfg.Config) (KV, error) {
	switch c.StorageDriver {
	case "s3":
		slog.Info("initializing S3 key-value storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3KV(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
			Prefix:    c.S3Prefix,
		})
	case "file", "":
		slog.Info("initializing file key-value storage", "dir", c.DataDir)
		return NewFileKV(c.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
