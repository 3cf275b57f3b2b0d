package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jask/releasetour/internal/config"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
		return OpenSQLite(cfg.Path)
	case config.DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.KeyPrefix)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
