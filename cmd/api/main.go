package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-catalog/config"
	"marketplace-catalog/internal/cache"
	"marketplace-catalog/internal/handler"
	"marketplace-catalog/internal/repository"
	"marketplace-catalog/internal/service"
	"marketplace-catalog/internal/storage"
	"marketplace-catalog/internal/ws"
	"marketplace-catalog/pkg/database"
	"marketplace-catalog/pkg/jwt"
	"marketplace-catalog/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.LoadEnv()

	// 2. Logger
	appLogger, err := logger.New(&logger.Config{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Setup Database
	db, err := database.ConnectDB(cfg.Postgres, appLogger)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	if err := database.Migrate(db); err != nil {
		appLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 4. Catalog cache
	var catalogCache cache.Cache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisCache := cache.NewRedisCache(rdb, "catalog:", cfg.Redis.CacheTTL)
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			appLogger.Warn("Redis unavailable, catalog cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			redisCache.Close()
		} else {
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			catalogCache = redisCache
			defer redisCache.Close()
		}
		pingCancel()
	}

	// 5. Image storage
	var store storage.ObjectStore
	switch cfg.Storage.Driver {
	case "jetstream":
		js, err := storage.NewJetStreamStore(ctx, cfg.Storage.NatsURL, cfg.Storage.Bucket, cfg.Storage.PublicURL)
		if err != nil {
			appLogger.Fatal("Could not open JetStream object store", zap.Error(err))
		}
		defer js.Close()
		store = js
		appLogger.Info("Using JetStream image storage", zap.String("bucket", cfg.Storage.Bucket))
	default:
		local, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicURL)
		if err != nil {
			appLogger.Fatal("Could not open local image storage", zap.Error(err))
		}
		store = local
		appLogger.Info("Using local image storage", zap.String("dir", cfg.Storage.Dir))
	}

	// 6. Setup WebSocket Hub
	wsHub := ws.NewHub(appLogger.Named("ws"))
	go wsHub.Run(ctx)

	// 7. Dependency Injection (Wiring Layers)
	attributeRepo := repository.NewAttributeRepo(db)
	valueRepo := repository.NewAttributeValueRepo(db)
	productRepo := repository.NewProductRepo(db)

	skuGen, err := service.NewSKUGenerator()
	if err != nil {
		appLogger.Fatal("Failed to create SKU generator", zap.Error(err))
	}

	catalogService := service.NewCatalogService(attributeRepo, db, catalogCache, appLogger.Named("catalog"), cfg.Catalog.CombinationLimit)
	valueService := service.NewAttributeValueService(attributeRepo, valueRepo, db)
	productService := service.NewProductService(productRepo, attributeRepo, valueService, store, db, wsHub, appLogger.Named("product"), skuGen)

	tokens := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.TTL)

	// 8. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Marketplace Catalog v1.0",
		BodyLimit: 32 * 1024 * 1024, // base64 images travel in the JSON body
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	handler.Register(app, handler.Handlers{
		Attributes: handler.NewAttributeHandler(catalogService),
		Products:   handler.NewProductHandler(productService),
		Admin:      handler.NewCatalogAdminHandler(catalogService),
		Images:     handler.NewImageHandler(store),
	}, tokens)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !wsHub.Join(c) {
			return
		}
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			appLogger.Panic("Server stopped", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	appLogger.Info("Server exited")
}
