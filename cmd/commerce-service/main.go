// cmd/commerce-service/main.go
package main

import (
	"context"

	"go.opentelemetry.io/otel"

	"inkverse/internal/pkg/bootstrap"
	"inkverse/internal/pkg/database"
	"inkverse/internal/pkg/logger"
	"inkverse/internal/pkg/mq"
	"inkverse/internal/pkg/redis"
	"inkverse/internal/service/commerce/application"
	"inkverse/internal/service/commerce/infrastructure"
	"inkverse/internal/service/commerce/infrastructure/adapter"
	"inkverse/internal/service/commerce/infrastructure/rule"
	"inkverse/internal/service/commerce/interfaces"
)

const (
	serviceName = "commerce-service"
	port        = 8081
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
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
		log.Fatal().Err(err).Msg("failed to migrate commerce tables")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs, cfg.Infra.Redis.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	kafkaWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.Topics.CommerceEvents)
	defer kafkaWriter.Close()

	// 2. 组装出站适配器
	stock, err := adapter.NewFlashSaleRedisAdapter(redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize flash-sale adapter")
	}
	evaluator, err := rule.NewEvaluator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize eligibility evaluator")
	}

	appService := application.NewCommerceApplicationService(application.Dependencies{
		Catalog:     infrastructure.NewGormCatalogRepository(db, stock),
		Vouchers:    infrastructure.NewGormVoucherRepository(db),
		Orders:      infrastructure.NewGormOrderRepository(db),
		Stock:       stock,
		Publisher:   adapter.NewOrderEventsKafkaAdapter(kafkaWriter),
		Eligibility: evaluator,
		Tracer:      otel.Tracer(serviceName),
		Features: func() application.Features {
			flags := bootstrap.GetCurrentConfig().App.FeatureFlags
			return application.Features{FlashSale: flags.EnableFlashSale, VoucherRules: flags.EnableVoucherRules}
		},
	})
	handler := interfaces.NewCommerceHandler(appService)

	// 3. 启动服务
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Router)
		},
	})
}
