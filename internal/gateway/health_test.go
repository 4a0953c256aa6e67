package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/gateway"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
)

func healthyBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReadinessAllCoreHealthy(t *testing.T) {
	products := healthyBackend(t)
	inventory := healthyBackend(t)
	checker := gateway.NewHealthChecker(httpclient.StaticResolver{
		"product-service":   products.URL,
		"inventory-service": inventory.URL,
	}, []string{"product-service", "inventory-service"})

	rec := httptest.NewRecorder()
	checker.ReadinessHandler([]string{"product-service", "inventory-service"})(rec,
		httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessFailsWhenCoreDown(t *testing.T) {
	products := healthyBackend(t)
	checker := gateway.NewHealthChecker(httpclient.StaticResolver{
		"product-service":   products.URL,
		"inventory-service": "http://127.0.0.1:1",
	}, []string{"product-service", "inventory-service"})

	rec := httptest.NewRecorder()
	checker.ReadinessHandler([]string{"product-service", "inventory-service"})(rec,
		httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusReportsPerService(t *testing.T) {
	products := healthyBackend(t)
	checker := gateway.NewHealthChecker(httpclient.StaticResolver{
		"product-service": products.URL,
		"order-service":   "http://127.0.0.1:1",
	}, []string{"product-service", "order-service"})

	rec := httptest.NewRecorder()
	checker.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	// 聚合状态端点总是 200，具体状态看响应体
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Gateway  string `json:"gateway"`
		Services map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Gateway)
	assert.Equal(t, "healthy", body.Services["product-service"].Status)
	assert.Equal(t, "unhealthy", body.Services["order-service"].Status)
	assert.NotEmpty(t, body.Services["order-service"].Error)
}
