package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/almoxarifado-api/internal/application/allocation"
	"github.com/jhoicas/almoxarifado-api/internal/application/auth"
	"github.com/jhoicas/almoxarifado-api/internal/application/catalog"
	"github.com/jhoicas/almoxarifado-api/internal/application/dashboard"
	"github.com/jhoicas/almoxarifado-api/internal/application/employee"
	"github.com/jhoicas/almoxarifado-api/internal/application/ledger"
	"github.com/jhoicas/almoxarifado-api/internal/infrastructure/mail"
	"github.com/jhoicas/almoxarifado-api/internal/infrastructure/postgres"
	"github.com/jhoicas/almoxarifado-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/almoxarifado-api/internal/interfaces/http"
	"github.com/jhoicas/almoxarifado-api/pkg/config"
	"github.com/jhoicas/almoxarifado-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)
	log.Info().
		Str("env", cfg.App.Env).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	allocationRepo := postgres.NewAllocationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	photos, err := storage.NewLocal(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de fotos")
	}
	mailer := mail.NewMailer(cfg.SMTP)
	if !mailer.Enabled() {
		log.Component("mail").Warn().Msg("SMTP no configurado: redefinición de contraseña por correo deshabilitada")
	}

	engine := ledger.NewEngine(txRunner, nil)
	catalogUC := catalog.NewUseCase(txRunner, userRepo, productRepo, movementRepo, allocationRepo, engine, photos, nil)
	allocationUC := allocation.NewUseCase(txRunner, engine, userRepo, productRepo, allocationRepo, nil)
	employeeUC := employee.NewUseCase(userRepo, allocationRepo, nil)
	dashboardUC := dashboard.NewUseCase(userRepo, productRepo, allocationRepo)
	authUC := auth.NewUseCase(userRepo, mailer, auth.Config{
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		ExpMinutes: cfg.JWT.Expiration,
		BaseURL:    cfg.App.BaseURL,
	}, nil)

	// Admin inicial: solo en una instalación vacía
	if cfg.Seed.AdminPassword != "" {
		seeded, err := employeeUC.SeedAdmin(cfg.Seed.AdminUsername, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("seed del admin inicial")
		}
		if seeded != nil {
			log.Info().Str("username", seeded.Username).Msg("admin inicial creado")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 * 1024 * 1024, // fotos de productos
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CatalogUC:    catalogUC,
		AllocationUC: allocationUC,
		EmployeeUC:   employeeUC,
		DashboardUC:  dashboardUC,
		Photos:       photos,
		UploadsDir:   photos.Dir(),
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Component("http").Error().Err(err).Msg("servidor HTTP finalizado")
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
