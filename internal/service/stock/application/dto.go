// internal/service/stock/application/dto.go
package application

import (
	"github.com/shopspring/decimal"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// ProductInput 是开通新商品时调用方提供的数据。
// 价格用 decimal 承载，避免 float 在金额上的精度问题。
type ProductInput struct {
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
}

// Validate 在任何上游调用之前校验输入。
func (p *ProductInput) Validate() error {
	if p.Name == "" {
		return domain.NewValidationError("product name is required")
	}
	if p.Stock < 0 {
		return domain.NewValidationError("initial stock must not be negative")
	}
	if p.Price.IsNegative() {
		return domain.NewValidationError("price must not be negative")
	}
	return nil
}

// ToPayload 转成发给商品服务的请求体。
func (p *ProductInput) ToPayload() map[string]any {
	payload := map[string]any{
		"name":  p.Name,
		"sku":   p.SKU,
		"price": p.Price,
		"stock": p.Stock,
	}
	if p.Description != "" {
		payload["description"] = p.Description
	}
	if p.Category != "" {
		payload["category"] = p.Category
	}
	return payload
}

// ProvisionRequest 是"建商品 + 建库存"接口的请求体。
type ProvisionRequest struct {
	Product           ProductInput `json:"product"`
	WarehouseLocation string       `json:"warehouse_location,omitempty"`
}

// SyncResult 是单件商品对账的结果。
type SyncResult struct {
	Success   bool   `json:"success"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}
