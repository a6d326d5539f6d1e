// cmd/push-gateway/main.go
package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/mq"
	"inkverse/internal/pkg/redis"
	"inkverse/internal/service/push"
)

const (
	serviceName = "push-gateway"
	port        = 8088
)

func main() {
	bootstrap.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	nodeID := serviceName + "-" + uuid.New().String()[:8]
	log := logger.Ctx(context.Background()).With().Str("node", nodeID).Logger()

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	sessions, err := push.NewSessionStore(redisClient, push.SessionTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize session store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := push.NewHub(nodeID)
	go hub.Run(ctx)

	// 每个节点独立的消费组，全部节点都能收到每条事件，再按会话归属过滤
	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topics.ProgressionEvents, nodeID)
	defer reader.Close()
	go func() {
		if err := push.NewRouter(reader, hub, sessions).Run(ctx); err != nil {
			log.Error().Err(err).Msg("progression event router stopped")
		}
	}()

	gateway := push.NewGateway(hub, sessions)
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Router.Handle("/metrics", promhttp.Handler())
			appCtx.Router.Get("/ws", gateway.ServeWs)
		},
	})
}
