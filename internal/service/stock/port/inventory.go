// internal/service/stock/port/inventory.go
package port

import (
	"context"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// InventoryService 是库存服务（数量的唯一权威源）的出站端口。
type InventoryService interface {
	// GetItem 查询单件商品的库存，数量字段兼容 quantity / stock。
	GetItem(ctx context.Context, productID string) (*domain.InventoryItem, error)

	// LowStock 返回低库存商品列表，原样透传上游响应。
	LowStock(ctx context.Context) ([]map[string]any, error)

	// ListItems 按页拉取库存清单，供全量对账使用。
	ListItems(ctx context.Context, page, perPage int) (*domain.InventoryPage, error)

	// Adjust 提交一次相对调整。上游没有幂等键，调用方不得重复提交。
	// 响应里 quantity 和 new_quantity 都接受，两者都缺返回 InvalidResponseError。
	Adjust(ctx context.Context, adj domain.StockAdjustment) (*domain.AdjustmentResult, error)

	// CreateItem 为新商品建立库存记录。
	CreateItem(ctx context.Context, rec domain.InventoryRecord) (map[string]any, error)
}
