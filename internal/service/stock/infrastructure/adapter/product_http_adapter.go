// internal/service/stock/infrastructure/adapter/product_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/constants"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

const productsPath = "/api/products"

// ProductHTTPAdapter 实现了 port.ProductService 接口。
type ProductHTTPAdapter struct {
	client *httpclient.Client
}

// NewProductHTTPAdapter 创建一个新的商品服务适配器。
func NewProductHTTPAdapter(client *httpclient.Client) *ProductHTTPAdapter {
	return &ProductHTTPAdapter{client: client}
}

// Create 创建商品。上游返回的 id 可能是数字，统一转成字符串。
func (a *ProductHTTPAdapter) Create(ctx context.Context, product map[string]any) (*domain.CreatedProduct, error) {
	body, err := a.client.CallJSON(ctx, constants.ProductService, http.MethodPost, productsPath, nil, product)
	if err != nil {
		return nil, normalizeError(constants.ProductService, err)
	}

	raw, err := decodeObject(constants.ProductService, body)
	if err != nil {
		return nil, err
	}
	id := coerceID(raw["id"])
	if id == "" {
		return nil, &domain.InvalidResponseError{Service: constants.ProductService, Field: "id"}
	}
	return &domain.CreatedProduct{ID: id, Raw: raw}, nil
}

// UpdateStock 把权威数量写进商品缓存的 stock 字段。
// 这里只看状态码：2xx 即成功。把空体当违约会触发一次多余的冲正，
// 反而制造出本来要消除的数据分叉。
func (a *ProductHTTPAdapter) UpdateStock(ctx context.Context, productID string, stock int) (map[string]any, error) {
	payload := map[string]any{"stock": stock}
	body, err := a.client.CallJSON(ctx, constants.ProductService, http.MethodPatch,
		productsPath+"/"+url.PathEscape(productID), nil, payload)
	if err != nil {
		return nil, normalizeError(constants.ProductService, err)
	}
	return decodeObjectLenient(body), nil
}

// Delete 删除商品（开通 Saga 的补偿动作）。
func (a *ProductHTTPAdapter) Delete(ctx context.Context, productID string) error {
	_, err := a.client.CallJSON(ctx, constants.ProductService, http.MethodDelete,
		productsPath+"/"+url.PathEscape(productID), nil, nil)
	if err != nil {
		return normalizeError(constants.ProductService, err)
	}
	return nil
}
