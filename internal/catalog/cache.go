package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedOracle is a read-through Redis cache in front of another Oracle.
// Cache failures degrade to direct lookups; they never fail a request.
type CachedOracle struct {
	next    Oracle
	client  *redis.Client
	baseTTL time.Duration
	logger  zerolog.Logger
}

func NewCachedOracle(next Oracle, client *redis.Client, logger zerolog.Logger) *CachedOracle {
	return &CachedOracle{
		next:    next,
		client:  client,
		baseTTL: 15 * time.Minute,
		logger:  logger,
	}
}

func (c *CachedOracle) Lookup(ctx context.Context, productID, size, finish string) (PricedVariant, error) {
	key := cacheKey(productID, size, finish)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var pv PricedVariant
		if err := json.Unmarshal(data, &pv); err == nil {
			return pv, nil
		}
		// corrupt entry, drop it and fall through
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Str("key", key).Msg("price cache read failed")
	}

	pv, err := c.next.Lookup(ctx, productID, size, finish)
	if err != nil {
		return PricedVariant{}, err
	}

	if body, err := json.Marshal(pv); err == nil {
		jitter := time.Duration(rand.Intn(5)) * time.Minute
		if err := c.client.Set(ctx, key, body, c.baseTTL+jitter).Err(); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("price cache write failed")
		}
	}

	return pv, nil
}

func cacheKey(productID, size, finish string) string {
	return fmt.Sprintf("price:%s:%s:%s", productID, size, finish)
}
