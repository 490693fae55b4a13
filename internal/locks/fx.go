package locks

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("locks",
	fx.Provide(provideRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(provideSessionLocker),
)

func provideRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("closing redis connection")
				return client.Close()
			},
		})
	}

	return client
}

func provideSessionLocker(shared *Locker) SessionLocker {
	return NewSessionLock(shared)
}
