package memcache_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"travelplan/internal/config"
	"travelplan/internal/infra"
	mem "travelplan/pkg/memcache"
)

const keyPrefix = "travelplan:"

var Module = fx.Provide(provideCache)

func provideCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (mem.Cache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory places cache")
		return mem.NewInMemoryCache(), nil
	}

	rdb, err := infra.InitRedis(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() error {
		return rdb.Close()
	}))
	return mem.NewRedisCache(rdb, keyPrefix, logger), nil
}
