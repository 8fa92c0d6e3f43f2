package cache

import (
	"context"
	"fmt"

	"glowguide/internal/infrastructure/config"
)

// NewStore 依設定建立緩存後端
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Cache.Backend {
	case "memory":
		return NewManager(cfg.Cache), nil
	case "redis":
		return NewRedisStore(ctx, cfg.Cache, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Cache.Backend)
	}
}
