package ports

import (
	"context"
	"time"
)

// KPICache puerto de caché de snapshots KPI serializados. Las fallas del
// caché nunca deben propagarse al caller: el use case las registra y sigue
// sin caché (read-through).
type KPICache interface {
	// Get devuelve el snapshot serializado o (nil, nil) si no existe.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
