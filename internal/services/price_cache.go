package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/paddygate/paddygate/internal/cache"
	"github.com/paddygate/paddygate/internal/models"
)

// PriceCache memoises public price listings per filter. Entries are stored
// under a generation that every write bumps, so a listing read before a write
// can never be served after it.
type PriceCache interface {
	// Get returns a cached listing, or on a miss the generation a fresh
	// listing must be stored under.
	Get(ctx context.Context, filter models.PriceFilter) (prices []*models.Price, gen int64, ok bool)
	Set(ctx context.Context, filter models.PriceFilter, gen int64, prices []*models.Price)
	Invalidate(ctx context.Context)
}

const priceGenerationKey = "paddygate:prices:gen"

// RedisPriceCache stores listings as JSON under one key per generation and
// filter combination. Superseded generations expire with their TTL.
type RedisPriceCache struct {
	client *cache.Client
	ttl    time.Duration
}

func NewRedisPriceCache(client *cache.Client, ttl time.Duration) *RedisPriceCache {
	return &RedisPriceCache{client: client, ttl: ttl}
}

func priceCacheKey(gen int64, filter models.PriceFilter) string {
	return fmt.Sprintf("paddygate:prices:%d:district=%s:variety=%s", gen, filter.District, filter.RiceVariety)
}

// generation is 0 until the first write and whenever Redis is unreachable.
func (c *RedisPriceCache) generation(ctx context.Context) int64 {
	gen, _ := strconv.ParseInt(string(c.client.Get(ctx, priceGenerationKey)), 10, 64)
	return gen
}

func (c *RedisPriceCache) Get(ctx context.Context, filter models.PriceFilter) ([]*models.Price, int64, bool) {
	gen := c.generation(ctx)
	raw := c.client.Get(ctx, priceCacheKey(gen, filter))
	if raw == nil {
		return nil, gen, false
	}
	var prices []*models.Price
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, gen, false
	}
	return prices, gen, true
}

func (c *RedisPriceCache) Set(ctx context.Context, filter models.PriceFilter, gen int64, prices []*models.Price) {
	raw, err := json.Marshal(prices)
	if err != nil {
		return
	}
	c.client.Set(ctx, priceCacheKey(gen, filter), raw, c.ttl)
}

// Invalidate retires every cached listing by moving to the next generation.
func (c *RedisPriceCache) Invalidate(ctx context.Context) {
	c.client.Incr(ctx, priceGenerationKey)
}

// noopPriceCache is used when Redis is not configured.
type noopPriceCache struct{}

func (noopPriceCache) Get(context.Context, models.PriceFilter) ([]*models.Price, int64, bool) {
	return nil, 0, false
}
func (noopPriceCache) Set(context.Context, models.PriceFilter, int64, []*models.Price) {}
func (noopPriceCache) Invalidate(context.Context) {}
