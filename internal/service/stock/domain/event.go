// internal/service/stock/domain/event.go
package domain

import "time"

// StockAdjusted 是库存变更 Saga 成功后发布的事件。
// 下游（报表、告警）据此感知库存变化，发布失败不影响主流程。
type StockAdjusted struct {
	EventID     string    `json:"eventId"`
	ProductID   string    `json:"productId"`
	Delta       int       `json:"delta"`
	NewQuantity int       `json:"newQuantity"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// ProductProvisioned 是"建商品 + 建库存"Saga 成功后发布的事件。
type ProductProvisioned struct {
	EventID           string    `json:"eventId"`
	ProductID         string    `json:"productId"`
	InitialQuantity   int       `json:"initialQuantity"`
	WarehouseLocation string    `json:"warehouseLocation"`
	OccurredAt        time.Time `json:"occurredAt"`
}
