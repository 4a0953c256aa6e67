// internal/gateway/router.go
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/bootstrap"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/constants"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/interfaces"
)

// RouterParams 聚合构建路由所需的依赖。
type RouterParams struct {
	Config       bootstrap.Config
	Resolver     httpclient.Resolver
	StockHandler *interfaces.StockHandler
}

// NewRouter 组装网关的全部路由。
// 库存编排路由在本进程内处理，其余 /api/* 前缀原样透传给对应下游。
func NewRouter(p RouterParams) *chi.Mux {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(p.Config) {
		r.Use(mw)
	}

	checker := NewHealthChecker(p.Resolver, []string{
		constants.ProductService,
		constants.InventoryService,
		constants.OrderService,
		constants.UserService,
	})

	r.Get("/health", checker.HealthHandler)
	r.Get("/healthz", checker.LivenessHandler)
	r.Get("/readyz", checker.ReadinessHandler([]string{
		constants.ProductService,
		constants.InventoryService,
	}))
	r.Get("/api/status", checker.StatusHandler)
	r.Handle("/metrics", promhttp.Handler())

	// 库存编排路由必须先注册，chi 会优先精确前缀；
	// /api/products/with-inventory 由编排处理，其余 /api/products/* 透传。
	p.StockHandler.RegisterRoutes(r)

	timeout := p.Config.Upstreams.Timeout
	productProxy := NewProxy(p.Resolver, constants.ProductService, timeout)
	inventoryProxy := NewProxy(p.Resolver, constants.InventoryService, timeout)
	orderProxy := NewProxy(p.Resolver, constants.OrderService, p.Config.Upstreams.OrderTimeout)
	userProxy := NewProxy(p.Resolver, constants.UserService, timeout)

	r.Handle("/api/products", productProxy)
	r.Handle("/api/products/*", productProxy)
	r.Handle("/inventory", inventoryProxy)
	r.Handle("/inventory/*", inventoryProxy)
	r.Handle("/api/v1/inventory/*", inventoryProxy)
	r.Handle("/api/orders", orderProxy)
	r.Handle("/api/orders/*", orderProxy)
	r.Handle("/api/users", userProxy)
	r.Handle("/api/users/*", userProxy)

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
