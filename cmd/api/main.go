package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/handlers"
	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/middleware"
	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/notifier"
	"github.com/lewiswilliams7/refrr-sub000/internal/adapters/repositories"
	"github.com/lewiswilliams7/refrr-sub000/internal/config"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/auth"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/domain"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/ports"
	"github.com/lewiswilliams7/refrr-sub000/internal/core/services"
	"github.com/lewiswilliams7/refrr-sub000/internal/metrics"
	"github.com/lewiswilliams7/refrr-sub000/internal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zapLogger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer zapLogger.Sync()

	if err := migrations.Run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	db, err := newPool(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		zapLogger.Fatal("invalid redis url", zap.Error(err))
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.DialTimeout = 2 * time.Second
	opt.ReadTimeout = 1 * time.Second
	opt.WriteTimeout = 1 * time.Second
	rdb := redis.NewClient(opt)

	m := metrics.New()

	cacheRepo := repositories.NewRedisRepo(rdb)
	referralRepo := repositories.NewReferralRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)
	businessRepo := repositories.NewBusinessRepository(db)

	var mailer ports.Notifier
	if cfg.SMTP.Host != "" {
		mailer = notifier.NewSMTP(notifier.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, zapLogger)
	} else {
		mailer = notifier.NewNoop(zapLogger)
	}

	referralService := services.NewReferralService(
		referralRepo, campaignRepo, businessRepo, mailer, m, zapLogger, cfg.Frontend.Origin)
	campaignService := services.NewCampaignService(campaignRepo, businessRepo, zapLogger)
	dashboardService := services.NewDashboardService(referralRepo, campaignRepo, businessRepo, zapLogger)

	referralHandler := handlers.NewReferralHandler(referralService, zapLogger)
	campaignHandler := handlers.NewCampaignHandler(campaignService, zapLogger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, zapLogger)

	sessionValidator := auth.NewSessionValidator(db, cacheRepo)
	authMiddleware := middleware.NewAuthMiddleware(sessionValidator)

	app := fiber.New(fiber.Config{
		ServerHeader: "Refrr",
		AppName:      "Refrr Referral API",
	})
	app.Use(logger.New())

	origins := []string{cfg.App.AllowedOrigin}
	if cfg.App.AllowedOrigin == "" {
		origins = []string{"*"}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: cfg.App.AllowedOrigin != "",
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
	}))

	startTime := time.Now()
	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":      "Refrr Referral API",
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")

	// Public referral surface: the redemption flow is driven by people
	// holding a code, not an account.
	api.Get("/referrals/code/:code", referralHandler.GetByCode)
	api.Post("/referrals/complete/:code", referralHandler.Complete)
	api.Post("/referrals/generate/:campaignId", referralHandler.GenerateLink, authMiddleware.OptionalAuth)

	authed := api.Group("", authMiddleware.RequireAuth)
	authed.Get("/referrals", referralHandler.List)

	business := authed.Group("", authMiddleware.RequireRole(domain.RoleBusiness))
	business.Post("/referrals", referralHandler.Create)
	business.Patch("/referrals/:id/status", referralHandler.UpdateStatus)
	business.Delete("/referrals/:id", referralHandler.Delete)

	business.Post("/campaigns", campaignHandler.Create)
	business.Get("/campaigns", campaignHandler.List)
	business.Get("/campaigns/:id", campaignHandler.Get)
	business.Patch("/campaigns/:id/status", campaignHandler.UpdateStatus)

	business.Get("/dashboard", dashboardHandler.Summary)

	zapLogger.Info("starting server", zap.Int("port", cfg.App.Port))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.App.Port)); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.App.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = cfg.App.GetLogLevel()
	return zcfg.Build()
}

func newPool(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to postgres",
		zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
	return db, nil
}
