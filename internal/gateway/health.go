// internal/gateway/health.go
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// HealthChecker 探测各下游服务的健康状态。
type HealthChecker struct {
	resolver httpclient.Resolver
	client   *http.Client
	services []string
}

// NewHealthChecker 创建健康检查器，services 是要探测的下游服务名列表。
func NewHealthChecker(resolver httpclient.Resolver, services []string) *HealthChecker {
	return &HealthChecker{
		resolver: resolver,
		client:   &http.Client{Timeout: 5 * time.Second},
		services: services,
	}
}

// probe 访问下游的 /health，2xx 即视为健康。
func (c *HealthChecker) probe(ctx context.Context, service string) error {
	base, err := c.resolver.BaseURL(ctx, service)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &httpclient.UpstreamError{Service: service, Status: resp.StatusCode}
	}
	return nil
}

// LivenessHandler 只回答进程是否活着。
func (c *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthHandler 是面向调用方的健康端点。
func (c *HealthChecker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "api-gateway",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessHandler 并发探测核心依赖，任何一个不可达就返回 503。
// 核心依赖指商品和库存两个服务，其余下游不影响就绪状态。
func (c *HealthChecker) ReadinessHandler(core []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ctx := errgroup.WithContext(r.Context())
		for _, service := range core {
			g.Go(func() error {
				return c.probe(ctx, service)
			})
		}
		if err := g.Wait(); err != nil {
			logger.Ctx(r.Context()).Warn().Err(err).Msg("readiness probe failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// StatusHandler 汇总所有下游的健康状态，总是返回 200，
// 由响应体里的每项状态说话。
func (c *HealthChecker) StatusHandler(w http.ResponseWriter, r *http.Request) {
	type serviceStatus struct {
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}

	var mu sync.Mutex
	statuses := make(map[string]serviceStatus, len(c.services))

	g, ctx := errgroup.WithContext(r.Context())
	for _, service := range c.services {
		g.Go(func() error {
			err := c.probe(ctx, service)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				statuses[service] = serviceStatus{Status: "unhealthy", Error: err.Error()}
			} else {
				statuses[service] = serviceStatus{Status: "healthy"}
			}
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, map[string]any{
		"gateway":   "ok",
		"services":  statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
