// internal/service/stock/infrastructure/adapter/inventory_http_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/constants"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

const inventoryItemsPath = "/api/v1/inventory/items"

// InventoryHTTPAdapter 实现了 port.InventoryService 接口。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

// GetItem 查询单件商品库存。上游有的版本用 quantity、有的用 stock，两者都接受。
func (a *InventoryHTTPAdapter) GetItem(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	body, err := a.client.CallJSON(ctx, constants.InventoryService, http.MethodGet,
		inventoryItemsPath+"/"+url.PathEscape(productID), nil, nil)
	if err != nil {
		return nil, normalizeError(constants.InventoryService, err)
	}

	raw, err := decodeObject(constants.InventoryService, body)
	if err != nil {
		return nil, err
	}
	quantity, ok := intField(raw, "quantity", "stock")
	if !ok {
		return nil, &domain.InvalidResponseError{Service: constants.InventoryService, Field: "quantity"}
	}
	return &domain.InventoryItem{ProductID: productID, Quantity: quantity, Raw: raw}, nil
}

// LowStock 返回低库存商品列表。上游可能返回裸数组，也可能包在 data 字段里。
func (a *InventoryHTTPAdapter) LowStock(ctx context.Context) ([]map[string]any, error) {
	body, err := a.client.CallJSON(ctx, constants.InventoryService, http.MethodGet,
		inventoryItemsPath+"/low-stock", nil, nil)
	if err != nil {
		return nil, normalizeError(constants.InventoryService, err)
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, errors.Wrapf(&domain.InvalidResponseError{Service: constants.InventoryService, Field: "data"},
			"decode low-stock response: %v", err)
	}
	return wrapped.Data, nil
}

// ListItems 按页拉取库存清单。
func (a *InventoryHTTPAdapter) ListItems(ctx context.Context, page, perPage int) (*domain.InventoryPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	body, err := a.client.CallJSON(ctx, constants.InventoryService, http.MethodGet, inventoryItemsPath, query, nil)
	if err != nil {
		return nil, normalizeError(constants.InventoryService, err)
	}

	var resp struct {
		Data []struct {
			ProductID         any    `json:"product_id"`
			Quantity          int    `json:"quantity"`
			WarehouseLocation string `json:"warehouse_location"`
		} `json:"data"`
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(&domain.InvalidResponseError{Service: constants.InventoryService, Field: "data"}, err.Error())
	}

	page_ := &domain.InventoryPage{CurrentPage: resp.CurrentPage, LastPage: resp.LastPage}
	for _, item := range resp.Data {
		page_.Items = append(page_.Items, domain.InventoryRecord{
			ProductID:         coerceID(item.ProductID),
			Quantity:          item.Quantity,
			WarehouseLocation: item.WarehouseLocation,
		})
	}
	return page_, nil
}

// Adjust 提交一次相对调整。
// 响应必须带 quantity 或 new_quantity，否则视为契约被破坏。
func (a *InventoryHTTPAdapter) Adjust(ctx context.Context, adj domain.StockAdjustment) (*domain.AdjustmentResult, error) {
	payload := map[string]any{
		"quantity": adj.Delta,
		"reason":   adj.Reason,
	}
	body, err := a.client.CallJSON(ctx, constants.InventoryService, http.MethodPost,
		inventoryItemsPath+"/"+url.PathEscape(adj.ProductID)+"/adjust", nil, payload)
	if err != nil {
		return nil, normalizeError(constants.InventoryService, err)
	}

	raw, err := decodeObject(constants.InventoryService, body)
	if err != nil {
		return nil, err
	}
	newQuantity, ok := intField(raw, "quantity", "new_quantity")
	if !ok {
		return nil, &domain.InvalidResponseError{Service: constants.InventoryService, Field: "quantity"}
	}
	return &domain.AdjustmentResult{NewQuantity: newQuantity, Raw: raw}, nil
}

// CreateItem 为新商品创建库存记录。
func (a *InventoryHTTPAdapter) CreateItem(ctx context.Context, rec domain.InventoryRecord) (map[string]any, error) {
	body, err := a.client.CallJSON(ctx, constants.InventoryService, http.MethodPost, inventoryItemsPath, nil, rec)
	if err != nil {
		return nil, normalizeError(constants.InventoryService, err)
	}
	return decodeObject(constants.InventoryService, body)
}

// normalizeError 把传输层错误归一化为领域错误。
func normalizeError(service string, err error) error {
	var ue *httpclient.UpstreamError
	if errors.As(err, &ue) {
		return &domain.UpstreamError{Service: service, Status: ue.Status, Err: err}
	}
	return &domain.UpstreamError{Service: service, Err: err}
}

func decodeObject(service string, body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrapf(&domain.InvalidResponseError{Service: service, Field: "body"},
			"decode response: %v", err)
	}
	return raw, nil
}

// decodeObjectLenient 给不依赖响应字段的调用方用：
// 空体（比如 204）或非 JSON 体按空对象处理，不算违约。
func decodeObjectLenient(body []byte) map[string]any {
	var raw map[string]any
	if json.Unmarshal(body, &raw) != nil || raw == nil {
		return map[string]any{}
	}
	return raw
}

// intField 按顺序从响应里取第一个存在的数字字段。
// JSON 数字解码出来是 float64，0 也是合法值。
func intField(raw map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case int:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

// coerceID 把上游返回的数字/字符串 id 统一成字符串。
func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case json.Number:
		return id.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
