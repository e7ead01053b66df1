package bootstrap

import (
	"context"

	"cinema-reservation/internal/infra/cache"
	"cinema-reservation/internal/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewRedis,
	),
)

func NewRedis(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	client := cache.NewClient(cfg.Redis)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client
}
