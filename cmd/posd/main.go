package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	analyticsapp "github.com/wyfcoding/pointofsale/internal/analytics/application"
	analyticshttp "github.com/wyfcoding/pointofsale/internal/analytics/interfaces/http"
	catalogapp "github.com/wyfcoding/pointofsale/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/pointofsale/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/pointofsale/internal/catalog/infrastructure/persistence/redis"
	cataloghttp "github.com/wyfcoding/pointofsale/internal/catalog/interfaces/http"
	customerapp "github.com/wyfcoding/pointofsale/internal/customer/application"
	customermysql "github.com/wyfcoding/pointofsale/internal/customer/infrastructure/persistence/mysql"
	customerhttp "github.com/wyfcoding/pointofsale/internal/customer/interfaces/http"
	identityapp "github.com/wyfcoding/pointofsale/internal/identity/application"
	identitymysql "github.com/wyfcoding/pointofsale/internal/identity/infrastructure/persistence/mysql"
	identityhttp "github.com/wyfcoding/pointofsale/internal/identity/interfaces/http"
	inventoryapp "github.com/wyfcoding/pointofsale/internal/inventory/application"
	inventorymysql "github.com/wyfcoding/pointofsale/internal/inventory/infrastructure/persistence/mysql"
	inventoryhttp "github.com/wyfcoding/pointofsale/internal/inventory/interfaces/http"
	orderapp "github.com/wyfcoding/pointofsale/internal/order/application"
	ordermysql "github.com/wyfcoding/pointofsale/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/pointofsale/internal/order/interfaces/http"
	paymentapp "github.com/wyfcoding/pointofsale/internal/payment/application"
	paymenthttp "github.com/wyfcoding/pointofsale/internal/payment/interfaces/http"
	"github.com/wyfcoding/pointofsale/pkg/cache"
	"github.com/wyfcoding/pointofsale/pkg/config"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/metrics"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/mq"
	"github.com/wyfcoding/pointofsale/pkg/outbox"
	"github.com/wyfcoding/pointofsale/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/posd/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment)

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&identitymysql.UserModel{},
		&catalogmysql.ProductModel{},
		&customermysql.CustomerModel{},
		&ordermysql.OrderModel{},
		&ordermysql.OrderItemModel{},
		&inventorymysql.MovementModel{},
		&outbox.EventModel{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate schema", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to init redis", "error", err)
	}
	defer redisCache.Close()

	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartHTTPServer(cfg.Metrics.Port, "/metrics"); err != nil {
				logger.Error(ctx, "Metrics server stopped", "error", err)
			}
		}()
	}

	// 仓储
	userRepo := identitymysql.NewUserRepository(database.DB)
	productRepo := catalogredis.NewCachedProductRepository(catalogmysql.NewProductRepository(database.DB), redisCache)
	customerRepo := customermysql.NewCustomerRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	movementRepo := inventorymysql.NewMovementRepository(database.DB)
	publisher := outbox.NewPublisher(database.DB)

	// Kafka 生产者与发件箱中继
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to init kafka producer", "error", err)
		}
		defer producer.Close()

		relay := outbox.NewRelay(database.DB, producer, cfg.Kafka.Topic, 2*time.Second)
		go relay.Run(ctx)
	}

	// 应用服务
	identitySvc := identityapp.NewIdentityService(userRepo,
		[]byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	catalogSvc := catalogapp.NewCatalogService(productRepo, movementRepo, database, m)
	customerSvc := customerapp.NewCustomerService(customerRepo)
	inventorySvc := inventoryapp.NewInventoryService(movementRepo, productRepo, database, m)
	orderSvc := orderapp.NewOrderService(orderRepo, productRepo, customerRepo, movementRepo, publisher, database, m)
	paymentSvc := paymentapp.NewPaymentService(orderRepo, customerRepo, publisher, database, m)
	analyticsSvc := analyticsapp.NewAnalyticsService(database.DB)

	router := buildRouter(cfg, m, redisCache, identitySvc, catalogSvc, customerSvc, inventorySvc, orderSvc, paymentSvc, analyticsSvc)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}
	logger.Info(context.Background(), "Service stopped")
}

func buildRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	redisCache *cache.RedisCache,
	identitySvc *identityapp.IdentityService,
	catalogSvc *catalogapp.CatalogService,
	customerSvc *customerapp.CustomerService,
	inventorySvc *inventoryapp.InventoryService,
	orderSvc *orderapp.OrderService,
	paymentSvc *paymentapp.PaymentService,
	analyticsSvc *analyticsapp.AnalyticsService,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(m.GinMiddleware())
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	api := router.Group("/api")
	api.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"version": cfg.Version,
		})
	})
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	identityHandler := identityhttp.NewIdentityHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.Auth([]byte(cfg.Auth.JWTSecret), identitySvc))

	identityHandler.RegisterRoutes(authed)
	cataloghttp.NewCatalogHandler(catalogSvc).RegisterRoutes(authed)
	customerhttp.NewCustomerHandler(customerSvc).RegisterRoutes(authed)
	inventoryhttp.NewInventoryHandler(inventorySvc).RegisterRoutes(authed)
	orderhttp.NewOrderHandler(orderSvc).RegisterRoutes(authed)
	paymenthttp.NewPaymentHandler(paymentSvc).RegisterRoutes(authed)
	analyticshttp.NewAnalyticsHandler(analyticsSvc).RegisterRoutes(authed)

	return router
}
