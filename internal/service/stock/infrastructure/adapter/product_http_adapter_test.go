package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/constants"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/infrastructure/adapter"
)

func newProductAdapter(t *testing.T, handler http.Handler) *adapter.ProductHTTPAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := httpclient.NewClient(noop.NewTracerProvider().Tracer("test"),
		httpclient.StaticResolver{constants.ProductService: server.URL}, 5*time.Second)
	return adapter.NewProductHTTPAdapter(client)
}

func TestProductCreateCoercesNumericID(t *testing.T) {
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		w.Write([]byte(`{"id":42,"name":"Widget"}`))
	}))

	created, err := a.Create(context.Background(), map[string]any{"name": "Widget"})

	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)
}

func TestProductCreateMissingID(t *testing.T) {
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Widget"}`))
	}))

	_, err := a.Create(context.Background(), map[string]any{"name": "Widget"})

	var ie *domain.InvalidResponseError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "id", ie.Field)
}

func TestProductUpdateStockPatchesStockField(t *testing.T) {
	var got map[string]any
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/products/p1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"p1","stock":15}`))
	}))

	_, err := a.UpdateStock(context.Background(), "p1", 15)

	require.NoError(t, err)
	assert.Equal(t, float64(15), got["stock"])
}

func TestProductUpdateStockAcceptsEmptyBody(t *testing.T) {
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))

	raw, err := a.UpdateStock(context.Background(), "p1", 15)

	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestProductUpdateStockAcceptsNonJSONBody(t *testing.T) {
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("updated"))
	}))

	raw, err := a.UpdateStock(context.Background(), "p1", 15)

	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestProductDeleteNormalizesUpstreamFailure(t *testing.T) {
	a := newProductAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		http.Error(w, "conflict", http.StatusConflict)
	}))

	err := a.Delete(context.Background(), "p1")

	var ue *domain.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusConflict, ue.Status)
}
