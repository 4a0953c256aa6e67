// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// maxErrorBodyBytes 限制记录到错误里的响应体大小，避免把大响应整个吞进内存。
const maxErrorBodyBytes = 4 << 10

// Resolver 把逻辑服务名解析成可访问的 Base URL。
// 实现可以是静态配置，也可以是 Nacos 服务发现。
type Resolver interface {
	BaseURL(ctx context.Context, service string) (string, error)
}

// Client 是一个可追踪的、可注入的 HTTP 客户端。
// 所有出站调用都带固定超时，并把链路上下文注入请求头。
type Client struct {
	tracer   trace.Tracer
	resolver Resolver
	http     *http.Client
	timeout  time.Duration
}

// NewClient 创建一个新的客户端实例。
// 不在 http.Client 上设置 Timeout，超时完全由每次请求的 context 控制。
func NewClient(tracer trace.Tracer, resolver Resolver, timeout time.Duration) *Client {
	return &Client{
		tracer:   tracer,
		resolver: resolver,
		timeout:  timeout,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// UpstreamError 是对下游调用失败的统一归一化。
// Status == 0 表示请求根本没到达对端（网络错误、超时）。
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s unreachable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// CallJSON 对 service 发起一次 JSON 调用并返回原始响应体。
// body 非 nil 时会被编码为 JSON 请求体。非 2xx 响应返回 *UpstreamError。
func (c *Client) CallJSON(ctx context.Context, service, method, path string, query url.Values, body any) ([]byte, error) {
	base, err := c.resolver.BaseURL(ctx, service)
	if err != nil {
		return nil, &UpstreamError{Service: service, Err: err}
	}

	rawURL := strings.TrimRight(base, "/") + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("call-%s", service), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			return nil, errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", rawURL),
		attribute.String("http.method", method),
		attribute.String("peer.service", service),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &UpstreamError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		uerr := &UpstreamError{Service: service, Status: resp.StatusCode, Body: string(snippet)}
		span.RecordError(uerr)
		span.SetStatus(codes.Error, uerr.Error())
		return nil, uerr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, &UpstreamError{Service: service, Err: err}
	}
	return respBody, nil
}

// StaticResolver 是基于静态配置的 Resolver 实现，
// key 为服务逻辑名，value 为 Base URL。
type StaticResolver map[string]string

func (r StaticResolver) BaseURL(_ context.Context, service string) (string, error) {
	base, ok := r[service]
	if !ok || base == "" {
		return "", fmt.Errorf("no base url configured for service '%s'", service)
	}
	return base, nil
}
