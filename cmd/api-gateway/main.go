// cmd/api-gateway/main.go
package main

import (
	"go.opentelemetry.io/otel"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/httpclient"
	"inkverse/internal/service/gateway"
)

const (
	serviceName = "api-gateway"
	port        = 8080
)

func main() {
	bootstrap.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			// 启用 Nacos 时优先走服务发现，发现失败回退到配置中的静态地址
			var resolver httpclient.Resolver = httpclient.StaticResolver(cfg.Gateway.Upstreams)
			if appCtx.Nacos != nil {
				resolver = httpclient.NewNacosResolver(appCtx.Nacos, resolver)
			}
			client := httpclient.NewClient(otel.Tracer(serviceName), resolver)
			gateway.New(client, gateway.DefaultRoutes()).RegisterRoutes(appCtx.Router)
		},
	})
}
