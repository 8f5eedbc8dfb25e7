package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/almacen-api/internal/application/inventory"
	"github.com/jhoicas/almacen-api/internal/application/purchase"
	"github.com/jhoicas/almacen-api/internal/application/sales"
	"github.com/jhoicas/almacen-api/internal/application/usecase"
	infrapdf "github.com/jhoicas/almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/almacen-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/almacen-api/internal/interfaces/http"
	"github.com/jhoicas/almacen-api/pkg/config"
	"github.com/jhoicas/almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos atados al pool: lecturas fuera de transacción. Los escritores
	// reciben repos atados a la transacción vía el TxRunner.
	movementRepo := postgres.NewStockMovementRepository(pool)
	positionRepo := postgres.NewInventoryPositionRepository(pool)
	batchRepo := postgres.NewStockBatchRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	poRepo := postgres.NewPurchaseOrderRepository(pool)
	soRepo := postgres.NewSalesOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	inventoryOps := inventory.NewOperationsUseCase(txRunner, movementRepo, positionRepo, batchRepo, locationRepo)
	inventoryHis := inventory.NewHistoryUseCase(movementRepo, productRepo)
	purchaseUC := purchase.NewUseCase(txRunner, poRepo, productRepo, inventoryOps)
	purchaseDocs := purchase.NewDocumentUseCase(poRepo, productRepo, infrapdf.NewMarotoPOGenerator())
	salesUC := sales.NewUseCase(txRunner, soRepo, productRepo, inventoryOps)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo, locationRepo)
	stockBatchUC := usecase.NewStockBatchUseCase(batchRepo, productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		InventoryOps: inventoryOps,
		InventoryHis: inventoryHis,
		PurchaseUC:   purchaseUC,
		PurchaseDocs: purchaseDocs,
		SalesUC:      salesUC,
		WarehouseUC:  warehouseUC,
		StockBatchUC: stockBatchUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
