// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/nacos"
	"inkverse/internal/pkg/tracing"
	"inkverse/internal/pkg/utils"
)

type AppCtx struct {
	Router chi.Router
	Nacos  *nacos.Client
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 一个函数，允许每个服务注册自己独特的 HTTP 路由
}

var nacosClient *nacos.Client

// Init 加载配置文件、环境变量覆盖，并在启用时叠加 Nacos 配置中心的内容。
// 必须在 StartService 之前、组装依赖之前调用。
func Init(serviceName string) {
	path := getEnv("CONFIG_PATH", "configs/config.yaml")
	cfg, err := LoadConfigFile(path)
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Str("path", path).Msg("failed to load config")
	}
	applyEnvOverrides(cfg)

	if cfg.Infra.Nacos.Enabled {
		client, err := nacos.NewNacosClient(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		nacosClient = client
		if remote, err := loadRemoteConfig(client, cfg.Infra.Nacos.DataID); err != nil {
			logger.Ctx(context.Background()).Warn().Err(err).Msg("nacos config unavailable, using local config")
		} else {
			applyEnvOverrides(remote)
			remote.Infra.Nacos = cfg.Infra.Nacos
			cfg = remote
		}
		watchRemoteConfig(client, cfg.Infra.Nacos)
	}

	SetCurrentConfig(cfg)
	logger.Init(serviceName, cfg.App.LogLevel)
}

func loadRemoteConfig(client *nacos.Client, dataID string) (*Config, error) {
	content, err := client.GetConfig(dataID)
	if err != nil {
		return nil, err
	}
	return ParseConfig([]byte(content))
}

// watchRemoteConfig 监听 Nacos 上的配置变更并原子替换当前配置。
// 基础设施地址只在启动时生效，热更新主要面向 FeatureFlags 和规则表。
func watchRemoteConfig(client *nacos.Client, nacosCfg NacosConfig) {
	err := client.ListenConfig(nacosCfg.DataID, func(data string) {
		cfg, err := ParseConfig([]byte(data))
		if err != nil {
			logger.Ctx(context.Background()).Error().Err(err).Msg("ignored invalid config update from nacos")
			return
		}
		applyEnvOverrides(cfg)
		cfg.Infra.Nacos = nacosCfg
		SetCurrentConfig(cfg)
		logger.Ctx(context.Background()).Info().
			Interface("feature_flags", cfg.App.FeatureFlags).
			Msg("config reloaded from nacos")
	})
	if err != nil {
		logger.Ctx(context.Background()).Warn().Err(err).Msg("failed to listen nacos config")
	}
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	log := logger.Ctx(context.Background())

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 服务注册，未启用 Nacos 时跳过
	var ip string
	if nacosClient != nil {
		ip, err = utils.GetOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := nacosClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 创建并启动 HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Router: router, Nacos: nacosClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: router}
	go func() {
		log.Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 4. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 阻塞主 goroutine，直到接收到退出信号
	<-quit
	log.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 按顺序执行清理操作 (后进先出)
	// a. 从 Nacos 注销服务
	if nacosClient != nil {
		if err := nacosClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Error().Err(err).Msg("Error deregistering from Nacos")
		} else {
			log.Info().Msgf("Service %s deregistered from Nacos.", info.ServiceName)
		}
		nacosClient.Close()
	}

	// b. 关闭 Tracer Provider，确保所有缓冲的 trace 都被发送出去
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	// c. 关闭 HTTP 服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Error shutting down http server")
	}

	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
