// Package httpclient 提供带链路追踪和服务发现的 HTTP 客户端，供网关转发请求。
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"inkverse/internal/pkg/nacos"
)

// Resolver 把服务名解析为可访问的基础地址，例如 http://10.0.0.3:8081
type Resolver interface {
	Resolve(serviceName string) (*url.URL, error)
}

// StaticResolver 使用配置文件中的固定地址
type StaticResolver map[string]string

func (s StaticResolver) Resolve(serviceName string) (*url.URL, error) {
	raw, ok := s[serviceName]
	if !ok {
		return nil, fmt.Errorf("no upstream configured for service %s", serviceName)
	}
	return url.Parse(raw)
}

// NacosResolver 每次请求都从 Nacos 选一个健康实例，失败时回退到静态地址
type NacosResolver struct {
	client   *nacos.Client
	fallback Resolver
}

func NewNacosResolver(client *nacos.Client, fallback Resolver) *NacosResolver {
	return &NacosResolver{client: client, fallback: fallback}
}

func (r *NacosResolver) Resolve(serviceName string) (*url.URL, error) {
	ip, port, err := r.client.DiscoverServiceInstance(serviceName)
	if err != nil {
		if r.fallback != nil {
			return r.fallback.Resolve(serviceName)
		}
		return nil, err
	}
	return &url.URL{Scheme: "http", Host: ip + ":" + strconv.Itoa(port)}, nil
}

// Client 是一个可追踪的、可注入的HTTP客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	Resolver   Resolver
}

// NewClient 创建一个新的客户端实例。
// http.Client 不设置 Timeout，超时完全受控于每次请求传入的 context。
func NewClient(tracer trace.Tracer, resolver Resolver) *Client {
	c := &Client{Tracer: tracer, Resolver: resolver}
	c.HTTPClient = &http.Client{
		Transport: c.Transport(&http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		}),
	}
	return c
}

// Transport 包装底层 RoundTripper：为每次调用创建客户端 span 并注入链路头
func (c *Client) Transport(base http.RoundTripper) http.RoundTripper {
	return &tracingTransport{tracer: c.Tracer, base: base}
}

// Get 调用某个服务的路径，调用方负责关闭响应体
func (c *Client) Get(ctx context.Context, serviceName, path string) (*http.Response, error) {
	base, err := c.Resolver.Resolve(serviceName)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.JoinPath(path).String(), nil)
	if err != nil {
		return nil, err
	}
	return c.HTTPClient.Do(req)
}

type tracingTransport struct {
	tracer trace.Tracer
	base   http.RoundTripper
}

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "call-"+req.URL.Hostname(), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.url", req.URL.String()),
		attribute.String("http.method", req.Method),
	)

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
