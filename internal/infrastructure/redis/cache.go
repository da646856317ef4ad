// Package redis implementa el caché de snapshots KPI sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/pkg/config"
)

var _ ports.KPICache = (*KPICache)(nil)

// KPICache caché de snapshots sobre un cliente go-redis.
type KPICache struct {
	client *redis.Client
}

// NewKPICache conecta al Redis configurado y verifica la conexión.
func NewKPICache(ctx context.Context, cfg config.RedisConfig) (*KPICache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &KPICache{client: client}, nil
}

// Get devuelve el snapshot serializado o (nil, nil) si la clave no existe.
func (c *KPICache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set guarda el snapshot con el TTL indicado.
func (c *KPICache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close cierra la conexión subyacente.
func (c *KPICache) Close() error {
	return c.client.Close()
}
