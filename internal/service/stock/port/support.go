// internal/service/stock/port/support.go
package port

import (
	"context"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// Locker 在进入变更 Saga 前对单个商品加锁。
// 没有这层串行化，两个并发变更会互相污染对方的回滚基准。
type Locker interface {
	// Acquire 阻塞到拿到 key 对应的锁，返回释放函数。
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Journal 持久化 Saga 执行流水，是人工修复的依据。
// 实现必须容忍底层存储不可用: 记录失败只告警，不影响主流程。
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
}

// EventPublisher 对外广播库存领域事件。发布是尽力而为的。
type EventPublisher interface {
	PublishStockAdjusted(ctx context.Context, event domain.StockAdjusted) error
	PublishProductProvisioned(ctx context.Context, event domain.ProductProvisioned) error
}

// StockCache 是库存读缓存。写路径只负责失效，不做回填。
type StockCache interface {
	Get(ctx context.Context, productID string) (*domain.InventoryItem, bool)
	Set(ctx context.Context, item *domain.InventoryItem)
	Invalidate(ctx context.Context, productID string)
}
