// internal/pkg/nacos/resolver.go
package nacos

import (
	"context"
	"fmt"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
)

// Resolver 用 Nacos 做服务发现，发现失败时退回静态配置。
// 这样本地开发不起 Nacos 也能直连下游。
type Resolver struct {
	client   *Client
	fallback httpclient.StaticResolver
}

// NewResolver 创建一个带静态兜底的服务发现 Resolver。
func NewResolver(client *Client, fallback httpclient.StaticResolver) *Resolver {
	return &Resolver{client: client, fallback: fallback}
}

// BaseURL 实现 httpclient.Resolver。
func (r *Resolver) BaseURL(ctx context.Context, service string) (string, error) {
	if r.client != nil {
		ip, port, err := r.client.DiscoverServiceInstance(service)
		if err == nil {
			return fmt.Sprintf("http://%s:%d", ip, port), nil
		}
		logger.Ctx(ctx).Warn().Err(err).
			Str("service", service).
			Msg("nacos discovery failed, falling back to static url")
	}
	return r.fallback.BaseURL(ctx, service)
}
