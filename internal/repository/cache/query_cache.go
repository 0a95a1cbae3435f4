package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bcct-chatbot-be/internal/pkg/logger"
	"bcct-chatbot-be/internal/repository/contract"
	"bcct-chatbot-be/pkg/nlp"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "bcct:query:"
	generationKey = keyPrefix + "generation"
)

// QueryCache is a read-through cache in front of a DataProvider. Only
// RunFilteredQuery is cached; a successful create bumps a generation counter
// so earlier results are never served again.
//
// Cached rows come back as decoded JSON, so numbers are float64.
type QueryCache struct {
	contract.DataProvider
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewQueryCache(next contract.DataProvider, rdb *redis.Client, ttl time.Duration, logger logger.ILogger) *QueryCache {
	return &QueryCache{
		DataProvider: next,
		rdb:          rdb,
		ttl:          ttl,
		logger:       logger,
	}
}

func (c *QueryCache) RunFilteredQuery(ctx context.Context, tableHint string, entities []nlp.EntityFilter, displayEntities []string) ([]map[string]interface{}, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warn("Generation lookup failed, bypassing cache", err)
		return c.DataProvider.RunFilteredQuery(ctx, tableHint, entities, displayEntities)
	}

	key, err := cacheKey(gen, tableHint, entities, displayEntities)
	if err != nil {
		return c.DataProvider.RunFilteredQuery(ctx, tableHint, entities, displayEntities)
	}

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var rows []map[string]interface{}
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.warn("Cache read failed", err)
	}

	rows, err := c.DataProvider.RunFilteredQuery(ctx, tableHint, entities, displayEntities)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rows); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.warn("Cache write failed", err)
		}
	}
	return rows, nil
}

func (c *QueryCache) CreateContract(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	res, err := c.DataProvider.CreateContract(ctx, fields)
	if err == nil && res.Success {
		c.invalidate(ctx)
	}
	return res, err
}

func (c *QueryCache) CreateChecklist(ctx context.Context, fields map[string]string) (contract.CreateResult, error) {
	res, err := c.DataProvider.CreateChecklist(ctx, fields)
	if err == nil && res.Success {
		c.invalidate(ctx)
	}
	return res, err
}

func (c *QueryCache) invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		c.warn("Cache invalidation failed", err)
	}
}

func (c *QueryCache) warn(msg string, err error) {
	c.logger.Warn("QueryCache", msg, map[string]interface{}{"error": err.Error()})
}

func cacheKey(generation, tableHint string, entities []nlp.EntityFilter, displayEntities []string) (string, error) {
	raw, err := json.Marshal(struct {
		Table    string             `json:"t"`
		Entities []nlp.EntityFilter `json:"e"`
		Display  []string           `json:"d"`
	}{tableHint, entities, displayEntities})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return keyPrefix + generation + ":" + hex.EncodeToString(sum[:]), nil
}
