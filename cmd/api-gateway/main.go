// cmd/api-gateway/main.go
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/gateway"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/bootstrap"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/constants"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/httpclient"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/logger"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/mq"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/nacos"
	redisclient "github.com/Makarasok24/DevOps-api-gateWay/internal/pkg/redis"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/application"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/infrastructure/adapter"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/interfaces"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/port"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/tracing"
	"github.com/Makarasok24/DevOps-api-gateWay/internal/zookeeper"
)

const serviceName = "api-gateway"

// main 函数是应用的"组装根" (Composition Root)。
// Kafka / Redis / Zookeeper / MySQL / Nacos 都是可选依赖：
// 没配置就退化成相应的本地实现或空实现，核心编排不受影响。
func main() {
	cfg, err := bootstrap.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Init(serviceName, "info")
		logger.Logger().Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(serviceName, cfg.Server.LogLevel)

	// 1. 初始化核心技术组件
	tp, err := tracing.InitTracerProvider(serviceName, cfg.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	tracer := otel.Tracer(serviceName)

	shutdownHooks := []func(ctx context.Context){
		func(ctx context.Context) { _ = tp.Shutdown(ctx) },
	}

	// 2. 上游地址解析: 配置了 Nacos 时走服务发现，静态地址兜底
	static := httpclient.StaticResolver{
		constants.ProductService:   cfg.Upstreams.Products,
		constants.InventoryService: cfg.Upstreams.Inventory,
		constants.OrderService:     cfg.Upstreams.Orders,
		constants.UserService:      cfg.Upstreams.Users,
	}
	var resolver httpclient.Resolver = static
	if cfg.Nacos.ServerAddrs != "" {
		nacosClient, err := nacos.NewClient(cfg.Nacos.ServerAddrs, cfg.Nacos.Namespace, cfg.Nacos.Group)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		if err := nacosClient.RegisterServiceInstance(serviceName, "127.0.0.1", cfg.Server.Port); err != nil {
			logger.Logger().Warn().Err(err).Msg("failed to register gateway in nacos")
		} else {
			shutdownHooks = append(shutdownHooks, func(ctx context.Context) {
				_ = nacosClient.DeregisterServiceInstance(serviceName, "127.0.0.1", cfg.Server.Port)
			})
		}
		resolver = nacos.NewResolver(nacosClient, static)
	}

	httpClient := httpclient.NewClient(tracer, resolver, cfg.Upstreams.Timeout)
	inventoryAdapter := adapter.NewInventoryHTTPAdapter(httpClient)
	productAdapter := adapter.NewProductHTTPAdapter(httpClient)

	// 3. 可选基础设施
	var locker port.Locker = adapter.NewLocalLocker()
	if cfg.Zookeeper.Servers != "" {
		zkConn, err := zookeeper.Connect(cfg.Zookeeper.Servers, 5*time.Second)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		shutdownHooks = append(shutdownHooks, func(ctx context.Context) { zkConn.Close() })
		locker = adapter.NewZkLocker(zkConn)
		logger.Logger().Info().Msg("✅ using zookeeper distributed lock for stock mutations")
	}

	var events port.EventPublisher
	if cfg.Kafka.Brokers != "" {
		writer := mq.NewKafkaWriter(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
		shutdownHooks = append(shutdownHooks, func(ctx context.Context) { _ = writer.Close() })
		events = adapter.NewKafkaEventPublisher(writer)
		logger.Logger().Info().Str("topic", cfg.Kafka.Topic).Msg("✅ kafka event publishing enabled")
	}

	var cache port.StockCache
	if cfg.Redis.Addr != "" {
		redisCli, err := redisclient.NewClient(cfg.Redis.Addr)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize redis client")
		}
		shutdownHooks = append(shutdownHooks, func(ctx context.Context) { _ = redisCli.Close() })
		cache = adapter.NewRedisStockCache(redisCli, cfg.Redis.CacheTTL)
		logger.Logger().Info().Msg("✅ redis stock cache enabled")
	}

	var journal port.Journal
	if cfg.MySQL.DSN != "" {
		gormJournal, err := adapter.NewGormJournal(cfg.MySQL.DSN)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize saga journal")
		}
		journal = gormJournal
		logger.Logger().Info().Msg("✅ saga journal enabled")
	}

	// 4. 组装业务服务和路由
	stockService := application.NewStockService(application.ServiceConfig{
		Inventory: inventoryAdapter,
		Product:   productAdapter,
		Locker:    locker,
		Journal:   journal,
		Events:    events,
		Cache:     cache,
		Tracer:    tracer,
	})

	router := gateway.NewRouter(gateway.RouterParams{
		Config:       cfg,
		Resolver:     resolver,
		StockHandler: interfaces.NewStockHandler(stockService),
	})

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.Server.Port,
		Handler:     router,
		OnShutdown:  shutdownHooks,
	})
}
