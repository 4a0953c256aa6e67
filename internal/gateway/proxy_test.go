package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/gateway"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
)

func TestProxyForwardsPathAndQuery(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/42", r.URL.Path)
		assert.Equal(t, "fields=name", r.URL.RawQuery)
		w.Write([]byte(`{"id":"42"}`))
	}))
	defer backend.Close()

	proxy := gateway.NewProxy(httpclient.StaticResolver{"product-service": backend.URL}, "product-service", 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/products/42?fields=name", nil)
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
}

func TestProxyUnavailableEnvelope(t *testing.T) {
	// 指向一个没人监听的端口
	proxy := gateway.NewProxy(httpclient.StaticResolver{"order-service": "http://127.0.0.1:1"}, "order-service", time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "service_unavailable", body["error"])
	assert.Equal(t, "order-service", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestProxyUnknownServiceEnvelope(t *testing.T) {
	proxy := gateway.NewProxy(httpclient.StaticResolver{}, "user-service", time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/users/1", nil)
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
