package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// SchemaCache caches rendered form schema trees. Forms are read-mostly; the
// cache is invalidated inside every rebuild and again after it commits, so a
// concurrent read cannot pin the old tree. Cache failures degrade to misses,
// never to request failures.
type SchemaCache interface {
	GetTree(ctx context.Context, formID uuid.UUID) ([]byte, bool)
	SetTree(ctx context.Context, formID uuid.UUID, raw []byte)
	Invalidate(ctx context.Context, formID uuid.UUID)
	Close() error
}

type schemaCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewSchemaCache(log *logger.Logger) (SchemaCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &schemaCache{
		log: log.With("client", "RedisSchemaCache"),
		rdb: rdb,
		ttl: envutil.Duration("REDIS_SCHEMA_TTL", time.Hour),
	}, nil
}

// NewNoopSchemaCache returns a cache that always misses, for deployments
// without Redis.
func NewNoopSchemaCache() SchemaCache { return noopSchemaCache{} }

type noopSchemaCache struct{}

func (noopSchemaCache) GetTree(context.Context, uuid.UUID) ([]byte, bool) { return nil, false }
func (noopSchemaCache) SetTree(context.Context, uuid.UUID, []byte)        {}
func (noopSchemaCache) Invalidate(context.Context, uuid.UUID)             {}
func (noopSchemaCache) Close() error                                      { return nil }

func schemaKey(formID uuid.UUID) string {
	return "meldingen:schema:" + formID.String()
}

func (c *schemaCache) GetTree(ctx context.Context, formID uuid.UUID) ([]byte, bool) {
	raw, err := c.rdb.Get(ctx, schemaKey(formID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("schema cache get failed", "form_id", formID, "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (c *schemaCache) SetTree(ctx context.Context, formID uuid.UUID, raw []byte) {
	if err := c.rdb.Set(ctx, schemaKey(formID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("schema cache set failed", "form_id", formID, "error", err)
	}
}

func (c *schemaCache) Invalidate(ctx context.Context, formID uuid.UUID) {
	if err := c.rdb.Del(ctx, schemaKey(formID)).Err(); err != nil {
		c.log.Warn("schema cache invalidate failed", "form_id", formID, "error", err)
	}
}

func (c *schemaCache) Close() error {
	return c.rdb.Close()
}
