// internal/service/stock/domain/stock.go
package domain

// InventoryRecord 是库存服务持有的权威记录。
// 数量只允许通过 adjust 接口做相对增减，永远不做绝对覆盖。
type InventoryRecord struct {
	ProductID         string `json:"product_id"`
	Quantity          int    `json:"quantity"`
	WarehouseLocation string `json:"warehouse_location"`
}

// StockAdjustment 是发给库存 adjust 接口的一次变更。
// Delta 为带符号的相对量。adjust 接口没有幂等键，
// 所以编排层必须保证同一次变更不会重复提交。
type StockAdjustment struct {
	ProductID string
	Delta     int
	Reason    string
}

// InventoryItem 是从库存服务查回的单件商品，
// Raw 保留上游原始响应，便于网关原样透传给调用方。
type InventoryItem struct {
	ProductID string
	Quantity  int
	Raw       map[string]any
}

// AdjustmentResult 是一次库存调整的结果。
type AdjustmentResult struct {
	NewQuantity int
	Raw         map[string]any
}

// InventoryPage 是库存服务分页列表的一页。
type InventoryPage struct {
	Items       []InventoryRecord
	CurrentPage int
	LastPage    int
}

// CreatedProduct 是商品服务创建成功后的结果。
// 上游返回的 id 可能是数字，这里统一转成字符串。
type CreatedProduct struct {
	ID  string
	Raw map[string]any
}

// SagaResult 是一次库存变更 Saga 的完整结果。
// 失败时也会尽量带上已经拿到的上游响应，方便排查发生到哪一步。
type SagaResult struct {
	Success     bool      `json:"success"`
	ProductID   string    `json:"product_id"`
	Delta       int       `json:"delta"`
	NewQuantity int       `json:"new_quantity"`
	State       SagaState `json:"state"`
	// PreviousQuantity 为 nil 表示事前读取失败，本次执行没有回滚基准
	PreviousQuantity *int           `json:"previous_quantity,omitempty"`
	Inventory        map[string]any `json:"inventory,omitempty"`
	Product          map[string]any `json:"product,omitempty"`
}

// ProvisioningResult 是"建商品 + 建库存"Saga 的结果。
type ProvisioningResult struct {
	Success   bool           `json:"success"`
	Product   map[string]any `json:"product"`
	Inventory map[string]any `json:"inventory"`
}

// BulkSyncReport 汇总一次全量对账的结果。
// 约束: Synced + Failed == 实际处理过的条目数。
type BulkSyncReport struct {
	Synced  int             `json:"synced"`
	Failed  int             `json:"failed"`
	Errors  []BulkSyncError `json:"errors"`
	Details []BulkSyncItem  `json:"details"`
}

type BulkSyncError struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

type BulkSyncItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

const (
	// DefaultWarehouseLocation 是未指定仓位时的默认值。
	DefaultWarehouseLocation = "WH-A1"

	// 库存调整时带给库存服务的 reason 文案
	ReasonStockAdded   = "Stock added via API Gateway"
	ReasonStockRemoved = "Stock removed via API Gateway"
	ReasonRollback     = "Rollback: Product service update failed"
)
