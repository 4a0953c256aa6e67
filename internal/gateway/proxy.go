// internal/gateway/proxy.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// Proxy 把整条路径原样转发给某个下游服务。
// 上游地址每个请求都重新解析一次，Nacos 侧的实例变化即时生效。
type Proxy struct {
	resolver httpclient.Resolver
	service  string
	timeout  time.Duration
}

// NewProxy 创建指向 service 的透传代理。
func NewProxy(resolver httpclient.Resolver, service string, timeout time.Duration) *Proxy {
	return &Proxy{resolver: resolver, service: service, timeout: timeout}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	base, err := p.resolver.BaseURL(ctx, p.service)
	if err != nil {
		p.writeUnavailable(w, r, err)
		return
	}
	target, err := url.Parse(base)
	if err != nil {
		p.writeUnavailable(w, r, err)
		return
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = r.URL.Path
			pr.Out.URL.RawQuery = r.URL.RawQuery
			pr.SetXForwarded()
			// 把网关的链路上下文带给下游
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(pr.Out.Header))
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.writeUnavailable(w, r, err)
		},
	}
	rp.ServeHTTP(w, r.WithContext(ctx))
}

// writeUnavailable 对齐下游不可达时的统一 503 报文。
func (p *Proxy) writeUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	logger.Ctx(r.Context()).Error().Err(err).
		Str("service", p.service).
		Str("path", r.URL.Path).
		Msg("proxy to upstream failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     "service_unavailable",
		"message":   "Service is currently unavailable",
		"service":   p.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
