package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/stockroom-backend/api/routes"
	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/catalog"
	"github.com/angelmondragon/stockroom-backend/internal/contacts"
	"github.com/angelmondragon/stockroom-backend/internal/imports"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/internal/orders"
	"github.com/angelmondragon/stockroom-backend/internal/products"
	"github.com/angelmondragon/stockroom-backend/internal/purchases"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	pkgauth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
	"github.com/angelmondragon/stockroom-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()
	auditWriter := audit.NewWriter(gormDB)
	inventoryStore := inventory.NewStore(gormDB)

	productsRepo := products.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	purchasesRepo := purchases.NewRepository(gormDB)
	categoriesRepo := catalog.NewCategoryRepository(gormDB)
	unitsRepo := catalog.NewUnitRepository(gormDB)
	customersRepo := contacts.NewCustomerRepository(gormDB)
	suppliersRepo := contacts.NewSupplierRepository(gormDB)
	usersRepo := users.NewRepository(gormDB)

	tokenIssuer := pkgauth.NewTokenIssuer(cfg.JWT)

	deps := routes.Deps{
		Cfg:         cfg,
		Logg:        logg,
		DB:          dbClient,
		Idempotency: redisClient,
		HTTPMetrics: metrics.NewHTTPMetrics(),
		TokenParser: tokenIssuer,
		AuthService: auth.NewService(usersRepo, tokenIssuer, logg),
		ProductService: products.NewService(
			dbClient, productsRepo, inventoryStore, auditWriter, logg),
		ProductImporter: imports.NewProductImporter(
			dbClient, categoriesRepo, unitsRepo, inventoryStore,
			imports.NewProductCreator(productsRepo), auditWriter, logg, cfg.Import.MaxRows),
		PurchaseImporter: imports.NewPurchaseImporter(
			dbClient, purchasesRepo, inventoryStore, suppliersRepo,
			auditWriter, logg, cfg.Import.MaxRows),
		OrderService:    orders.NewService(dbClient, ordersRepo, inventoryStore, auditWriter, logg),
		PurchaseService: purchases.NewService(dbClient, purchasesRepo, inventoryStore, auditWriter, logg),
		CategoryService: catalog.NewCategoryService(dbClient, categoriesRepo, auditWriter, logg),
		UnitService:     catalog.NewUnitService(dbClient, unitsRepo, auditWriter, logg),
		CustomerService: contacts.NewCustomerService(dbClient, customersRepo, auditWriter, logg),
		SupplierService: contacts.NewSupplierService(dbClient, suppliersRepo, auditWriter, logg),
		UserService:     users.NewService(dbClient, usersRepo, cfg.Password, auditWriter, logg),
		AuditWriter:     auditWriter,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
