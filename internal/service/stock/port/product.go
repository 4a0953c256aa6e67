// internal/service/stock/port/product.go
package port

import (
	"context"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// ProductService 是商品服务（stock 字段为反规范化镜像）的出站端口。
type ProductService interface {
	// Create 创建商品，响应必须带 id（数字会被转成字符串）。
	Create(ctx context.Context, product map[string]any) (*domain.CreatedProduct, error)

	// UpdateStock 把权威数量覆盖写入商品缓存的 stock 字段。
	UpdateStock(ctx context.Context, productID string, stock int) (map[string]any, error)

	// Delete 删除商品，是开通 Saga 的补偿动作。
	Delete(ctx context.Context, productID string) error
}
