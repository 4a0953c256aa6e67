// internal/service/stock/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/application"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// StockHandler 封装库存编排服务的 HTTP 处理器。
type StockHandler struct {
	service *application.StockService
}

// NewStockHandler 创建一个新的 HTTP 处理器实例。
func NewStockHandler(service *application.StockService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes 在 chi 路由器上注册库存相关路由。
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/stock", func(r chi.Router) {
		r.Post("/sync-all", h.syncAllHandler)
		r.Get("/low-stock", h.lowStockHandler)
		r.Get("/{productId}", h.getStockHandler)
		r.Post("/{productId}/add", h.addStockHandler)
		r.Post("/{productId}/remove", h.removeStockHandler)
		r.Post("/{productId}/sync", h.syncStockHandler)
	})
	r.Post("/api/products/with-inventory", h.createWithInventoryHandler)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *StockHandler) addStockHandler(w http.ResponseWriter, r *http.Request) {
	h.adjustHandler(w, r, h.service.AddStock)
}

func (h *StockHandler) removeStockHandler(w http.ResponseWriter, r *http.Request) {
	h.adjustHandler(w, r, h.service.RemoveStock)
}

func (h *StockHandler) adjustHandler(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, productID string, quantity int) (*domain.SagaResult, error)) {
	productID := chi.URLParam(r, "productId")

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.NewValidationError("invalid request body: quantity is required"))
		return
	}

	result, err := op(r.Context(), productID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *StockHandler) getStockHandler(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetStock(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item.Raw)
}

func (h *StockHandler) lowStockHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetLowStock(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *StockHandler) syncStockHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SyncStock(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *StockHandler) syncAllHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.SyncAllProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Bulk sync completed",
		"synced":  report.Synced,
		"failed":  report.Failed,
		"errors":  report.Errors,
		"details": report.Details,
	})
}

type provisionRequest struct {
	Product           application.ProductInput `json:"product"`
	WarehouseLocation string                   `json:"warehouse_location"`
}

func (h *StockHandler) createWithInventoryHandler(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.NewValidationError("invalid request body"))
		return
	}

	result, err := h.service.CreateProductWithInventory(r.Context(), req.Product, req.WarehouseLocation)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// errorEnvelope 是所有出错响应的统一外壳。
type errorEnvelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// writeError 把领域错误翻译成 HTTP 状态码。
// 上游带回了状态码就透传，纯网络失败归为 503。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ue *domain.UpstreamError
		ie *domain.InvalidResponseError
		ce *domain.InconsistentError
		oe *domain.OrphanedResourceError
		re *domain.RolledBackError
	)

	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.As(err, &ve):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.As(err, &ce):
		status, code = http.StatusInternalServerError, "inconsistent_state"
	case errors.As(err, &oe):
		status, code = http.StatusInternalServerError, "orphaned_resource"
	case errors.As(err, &re):
		// 冲正成功时真正的失败原因是商品服务的那次响应，
		// 它带了状态码就透传给调用方。
		status, code = http.StatusBadGateway, "rolled_back"
		if s, ok := domain.UpstreamStatus(err); ok && s >= 400 {
			status = s
		}
	case errors.As(err, &ie):
		status, code = http.StatusBadGateway, "invalid_upstream_response"
	case errors.As(err, &ue):
		code = "upstream_error"
		if ue.Status >= 400 {
			status = ue.Status
		} else {
			status = http.StatusServiceUnavailable
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}

	writeJSON(w, status, errorEnvelope{
		Error:     code,
		Message:   err.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
