// cmd/progression-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/database"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/mq"
	"inkverse/internal/pkg/zookeeper"
	"inkverse/internal/service/progression/application"
	progressionport "inkverse/internal/service/progression/domain/port"
	"inkverse/internal/service/progression/infrastructure"
	"inkverse/internal/service/progression/infrastructure/adapter"
	"inkverse/internal/service/progression/interfaces"
)

const (
	serviceName = "progression-service"
	port        = 8082
)

func main() {
	bootstrap.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	log := logger.Ctx(context.Background())

	// 1. 初始化基础设施
	db, err := database.Open(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	if err := database.Migrate(db, cfg.App.Env, infrastructure.Models()...); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate progression tables")
	}

	kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topics.ProgressionEvents)
	defer kafkaWriter.Close()

	// 规则表在启动时校验，错误配置直接拒绝启动
	rules, err := infrastructure.NewRulesProvider(bootstrap.GetCurrentConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid progression rules")
	}

	// 2. 选择用户锁实现：多实例部署走 ZooKeeper，否则退化为进程内锁
	var locker progressionport.UserLocker = adapter.NewLocalUserLocker()
	if cfg.App.FeatureFlags.EnableDistributedLocks {
		zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect zookeeper")
		}
		defer zkConn.Close()
		locker = adapter.NewZookeeperUserLocker(zkConn)
	}

	appService := application.NewProgressionApplicationService(application.Dependencies{
		Profiles:  infrastructure.NewGormProfileRepository(db),
		Chapters:  infrastructure.NewGormChapterRepository(db),
		Publisher: adapter.NewProgressionEventsKafkaAdapter(kafkaWriter),
		Locker:    locker,
		Tracer:    otel.Tracer(serviceName),
		Rules:     rules.Rules,
		PushEnabled: func() bool {
			return bootstrap.GetCurrentConfig().App.FeatureFlags.EnableProgressionPush
		},
	})
	handler := interfaces.NewProgressionHandler(appService)

	// 3. 启动服务
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Router)
		},
	})
}
