// internal/service/stock/infrastructure/adapter/stock_cache_redis.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	redisclient "github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/redis"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

const stockCacheKeyPrefix = "stock:item:"

// RedisStockCache 是 port.StockCache 的 Redis 实现（cache-aside）。
// 读路径未命中时由调用方回源并 Set；变更 Saga 成功后只做失效。
// 缓存任何一步失败都静默降级为直连库存服务。
type RedisStockCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisStockCache 创建库存读缓存。ttl <= 0 时使用 30s。
func NewRedisStockCache(client *redisclient.Client, ttl time.Duration) *RedisStockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStockCache{client: client, ttl: ttl}
}

func (c *RedisStockCache) Get(ctx context.Context, productID string) (*domain.InventoryItem, bool) {
	data, err := c.client.GetClient().Get(ctx, stockCacheKeyPrefix+productID).Bytes()
	if err != nil {
		return nil, false
	}
	var item domain.InventoryItem
	if err := json.Unmarshal(data, &item); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("corrupt stock cache entry, dropping")
		c.Invalidate(ctx, productID)
		return nil, false
	}
	return &item, true
}

func (c *RedisStockCache) Set(ctx context.Context, item *domain.InventoryItem) {
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := c.client.GetClient().Set(ctx, stockCacheKeyPrefix+item.ProductID, data, c.ttl).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", item.ProductID).Msg("failed to populate stock cache")
	}
}

func (c *RedisStockCache) Invalidate(ctx context.Context, productID string) {
	if err := c.client.GetClient().Del(ctx, stockCacheKeyPrefix+productID).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("failed to invalidate stock cache")
	}
}
