package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/metrics"
	"go-pos-rd/internal/middleware"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/internal/ws"
	"go-pos-rd/pkg/cache"
	"go-pos-rd/pkg/database"
	"go-pos-rd/pkg/jwt"
	"go-pos-rd/pkg/logger"
	"go-pos-rd/pkg/storage"
	"go-pos-rd/pkg/whatsapp"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Config and logger
	cfg, err := config.Load()
	if err != nil {
		logger.ForEnv("development", "info").Fatal("load config", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer func() { _ = log.Sync() }()

	// 2. Database
	db, err := database.ConnectDB(cfg.Database.Connection(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	// Versioned SQL lives in migrations/ for cmd/migrate; AutoMigrate keeps
	// development databases in step with the models.
	if cfg.App.Env != "production" {
		if err := db.AutoMigrate(model.All()...); err != nil {
			log.Fatal("auto migrate", zap.Error(err))
		}
	}

	// 3. Cache, storage, metrics
	store, closeStore := openCache(cfg, log)
	defer closeStore()

	files, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}

	m := metrics.New()

	sender, err := whatsapp.NewSender(cfg.WhatsApp.Sender, log)
	if err != nil {
		log.Fatal("whatsapp sender", zap.Error(err))
	}

	// 4. WebSocket hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()
	defer wsHub.Stop()

	// 5. Repositories
	loc := cfg.App.Location()
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewStockMovementRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	ncfRepo := repository.NewNcfSequenceRepo(db)
	counterRepo := repository.NewCounterRepo(db)
	settingsRepo := repository.NewSettingsRepo(db, cfg.Business.ITBISRate, cfg.Business.NcfAlertThreshold)
	purchaseRepo := repository.NewPurchaseOrderRepo(db)
	rncRepo := repository.NewRncRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	driverRepo := repository.NewDriverRepo(db)
	deliveryRepo := repository.NewDeliveryRepo(db)
	whatsAppRepo := repository.NewWhatsAppRepo(db)

	// 6. Seed roles, privileges and the admin account
	if err := service.SeedAccessControl(privilegeRepo, roleRepo, userRepo, service.DefaultAdmin, log); err != nil {
		log.Fatal("seed access control", zap.Error(err))
	}

	// 7. Services
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	auditService := service.NewAuditService(auditRepo, log)
	authService := service.NewAuthService(userRepo, tokens, auditService, wsHub, log)
	userService := service.NewUserService(userRepo, roleRepo, auditService, log)
	catalogService := service.NewCatalogService(db, categoryRepo, productRepo, movementRepo, auditService, wsHub, log, cfg.Business.LowStockThreshold)
	inventoryService := service.NewInventoryService(db, productRepo, movementRepo, auditService, wsHub, log, cfg.Business.LowStockThreshold)
	customerService := service.NewCustomerService(customerRepo, auditService, log)
	supplierService := service.NewSupplierService(supplierRepo, auditService, log)
	ncfService := service.NewNcfService(ncfRepo, settingsRepo, auditService, wsHub, m, log)
	saleService := service.NewSaleService(service.SaleDeps{
		DB:            db,
		Sales:         saleRepo,
		Products:      productRepo,
		Customers:     customerRepo,
		Movements:     movementRepo,
		Counters:      counterRepo,
		Settings:      settingsRepo,
		Ncf:           ncfService,
		Audit:         auditService,
		Events:        wsHub,
		Metrics:       m,
		Idempotency:   store,
		Log:           log,
		Location:      loc,
		IdempotentTTL: cfg.Business.IdempotencyKeyTTL,
	})
	purchaseService := service.NewPurchaseService(db, purchaseRepo, supplierRepo, productRepo, movementRepo, counterRepo, settingsRepo, auditService, wsHub, m, log)
	reportService := service.NewReportService(saleRepo, purchaseRepo, settingsRepo, auditService, log, loc)
	rncService := service.NewRncService(rncRepo, store, cfg.Business.RNCCacheTTL, cfg.Business.RNCNegativeTTL, log)
	settingsService := service.NewSettingsService(settingsRepo, files, auditService, wsHub, log, cfg.Storage.MaxUploadSize, cfg.Storage.AllowedTypes)
	dashboardService := service.NewDashboardService(saleRepo, productRepo, customerRepo, movementRepo, cfg.Business.LowStockThreshold, loc, log)
	deliveryService := service.NewDeliveryService(driverRepo, deliveryRepo, saleRepo, auditService, wsHub, log)
	whatsAppService := service.NewWhatsAppService(whatsAppRepo, customerRepo, saleService, sender, m, cfg.WhatsApp.RatePerSecond, cfg.WhatsApp.Burst, log)

	// 8. Fiber
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             cfg.HTTP.BodyLimit,
		DisableStartupMessage: cfg.App.Env == "production",
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.App.Env != "production"}))
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(log))
	app.Use(middleware.Metrics(m))
	app.Use(cors.New(corsConfig(cfg.HTTP.CORSAllowOrigins)))

	registerRoutes(app, routeDeps{
		cfg:       cfg,
		log:       log,
		loc:       loc,
		hub:       wsHub,
		metrics:   m,
		auth:      authService,
		users:     userService,
		roles:     roleRepo,
		privs:     privilegeRepo,
		catalog:   catalogService,
		inventory: inventoryService,
		customers: customerService,
		suppliers: supplierService,
		sales:     saleService,
		ncf:       ncfService,
		rnc:       rncService,
		purchases: purchaseService,
		reports:   reportService,
		dashboard: dashboardService,
		settings:  settingsService,
		audit:     auditService,
		delivery:  deliveryService,
		whatsapp:  whatsAppService,
	})
	if local, ok := files.(*storage.Local); ok {
		app.Static("/uploads", local.Dir())
	}

	// 9. Graceful shutdown
	go func() {
		log.Info("http server listening", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server exited")
}

// openCache returns the redis store when enabled and the in-process store
// otherwise. The memory store is swept in the background.
func openCache(cfg *config.Config, log *zap.Logger) (cache.Store, func()) {
	if cfg.Redis.Enabled {
		rs, err := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, "pos:")
		if err == nil {
			log.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
			return rs, func() { _ = rs.Close() }
		}
		log.Warn("redis unavailable, falling back to memory cache", zap.Error(err))
	}

	ms := cache.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := ms.Sweep(); n > 0 {
					log.Debug("cache sweep", zap.Int("expired", n))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return ms, cancel
}

func openStorage(cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Bucket:        cfg.Storage.Bucket,
			Region:        cfg.Storage.Region,
			Endpoint:      cfg.Storage.Endpoint,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			UsePathStyle:  cfg.Storage.UsePathStyle,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, storage.WithLogger(log))
	case "", "local":
		return storage.NewLocal(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	default:
		return nil, errors.New("unknown storage driver " + cfg.Storage.Driver)
	}
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		return cors.Config{AllowOrigins: "*"}
	}
	return cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key, " + middleware.HeaderRequestID,
		ExposeHeaders:    "Content-Disposition, X-Record-Count, " + middleware.HeaderRequestID,
	}
}
