// Package gateway 是面向客户端的边缘网关：按路径前缀把请求反向代理到
// commerce-service 和 progression-service，并汇总下游的就绪状态。
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/baggage"
	"golang.org/x/sync/errgroup"

	"inkverse/internal/pkg/httpclient"
	"inkverse/internal/pkg/httpx"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/metrics"
)

const (
	serviceName  = "api-gateway"
	readyTimeout = 2 * time.Second
	// 客户端渠道通过 baggage 透传给下游，便于按渠道分析链路
	channelHeader = "X-Client-Channel"
)

// Route 把一个路径前缀映射到一个上游服务
type Route struct {
	Prefix  string
	Service string
}

// DefaultRoutes 是网关对外暴露的两组接口
func DefaultRoutes() []Route {
	return []Route{
		{Prefix: "/api/commerce", Service: "commerce-service"},
		{Prefix: "/api/progression", Service: "progression-service"},
	}
}

type Gateway struct {
	client *httpclient.Client
	routes []Route
}

func New(client *httpclient.Client, routes []Route) *Gateway {
	return &Gateway{client: client, routes: routes}
}

func (g *Gateway) RegisterRoutes(r chi.Router) {
	// 对于 livenessProbe，只要能响应，就说明进程存活
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", g.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httpx.Tracing(serviceName))
		for _, route := range g.routes {
			r.Handle(route.Prefix+"/*", g.proxy(route))
		}
	})
}

func (g *Gateway) proxy(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := g.client.Resolver.Resolve(route.Service)
		if err != nil {
			logger.Ctx(r.Context()).Error().Err(err).Str("service", route.Service).Msg("upstream resolution failed")
			metrics.GatewayProxied.WithLabelValues(route.Service, strconv.Itoa(http.StatusServiceUnavailable)).Inc()
			httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorBody{Code: "UPSTREAM_UNAVAILABLE", Message: route.Service + " is not available"})
			return
		}

		ctx := withChannelBaggage(r.Context(), r.Header.Get(channelHeader))
		proxy := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, route.Prefix)
				pr.Out.URL.RawPath = ""
				pr.SetURL(target)
				pr.SetXForwarded()
			},
			Transport: g.client.HTTPClient.Transport,
			ModifyResponse: func(resp *http.Response) error {
				metrics.GatewayProxied.WithLabelValues(route.Service, strconv.Itoa(resp.StatusCode)).Inc()
				return nil
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				logger.Ctx(r.Context()).Error().Err(err).Str("service", route.Service).Msg("proxy request failed")
				metrics.GatewayProxied.WithLabelValues(route.Service, strconv.Itoa(http.StatusBadGateway)).Inc()
				httpx.WriteJSON(w, http.StatusBadGateway, httpx.ErrorBody{Code: "UPSTREAM_UNAVAILABLE", Message: route.Service + " did not respond"})
			},
		}
		proxy.ServeHTTP(w, r.WithContext(ctx))
	}
}

// withChannelBaggage 把客户端渠道写入 baggage，非法取值直接忽略
func withChannelBaggage(ctx context.Context, channel string) context.Context {
	if channel == "" {
		return ctx
	}
	member, err := baggage.NewMember("client_channel", channel)
	if err != nil {
		return ctx
	}
	b, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, b)
}

// readyz 并发检查所有上游的 /healthz，任何一个不可用即返回 503
func (g *Gateway) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	for _, route := range g.routes {
		route := route
		eg.Go(func() error {
			resp, err := g.client.Get(ctx, route.Service, "/healthz")
			if err != nil {
				return fmt.Errorf("%s: %w", route.Service, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s: healthz returned %d", route.Service, resp.StatusCode)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("downstream not ready")
		httpx.WriteJSON(w, http.StatusServiceUnavailable, httpx.ErrorBody{Code: "NOT_READY", Message: err.Error()})
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
