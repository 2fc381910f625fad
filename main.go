package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nft-wager-arena/handlers"
	"nft-wager-arena/middleware"
	"nft-wager-arena/models"
	"nft-wager-arena/nft"
	"nft-wager-arena/services"
	"nft-wager-arena/utils"
	"nft-wager-arena/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.NewEntry(logger).WithField("service", "nft-wager-arena")

	cfg, dotenv, err := utils.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if !dotenv {
		log.Info("⚠️  No .env file found, reading environment variables directly")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	arenaID := models.ActorID(cfg.ArenaID)
	opts := services.Options{
		Self: arenaID,
		Dial: nft.HTTPDialer(cfg.NFTServiceToken),
		Log:  log,
	}

	var store *services.SnapshotStore
	if cfg.DatabaseURL != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to database")
		}
		if err := db.AutoMigrate(&models.ArenaSnapshot{}); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}
		store = services.NewSnapshotStore(db)
	} else {
		log.Warn("⚠️  DATABASE_URL not set, arena state will not be persisted")
	}

	var actor *services.Actor
	if store != nil {
		dump, found, err := store.Latest(ctx, arenaID)
		if err != nil {
			log.WithError(err).Fatal("failed to load arena snapshot")
		}
		if found {
			actor = services.Restore(dump, opts)
		}
	}
	if actor == nil {
		templates, err := utils.LoadTemplates(cfg.TemplatesFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load default templates")
		}
		var nftService *models.ActorID
		if cfg.NFTServiceURL != "" {
			addr := models.ActorID(cfg.NFTServiceURL)
			nftService = &addr
		}
		actor = services.Initialize(models.ActorID(cfg.ArenaOwner), templates, nftService, opts)
	}

	if store != nil {
		go workers.PollSnapshots(ctx, actor, store, cfg.SnapshotInterval, log.WithField("worker", "snapshot"))
	}

	if cfg.R2.Enabled() {
		if err := utils.InitR2(ctx, cfg.R2); err != nil {
			log.WithError(err).Fatal("failed to initialize R2 client")
		}
		sched, err := services.StartArchiveScheduler(actor, cfg.ArenaName, cfg.ArchiveInterval, utils.UploadSnapshotToR2, log.WithField("worker", "archive"))
		if err != nil {
			log.WithError(err).Fatal("failed to start archive scheduler")
		}
		defer func() { _ = sched.Shutdown() }()
	}

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, log))

	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(allowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupMetricsRoutes(app)
	handlers.SetupArenaRoutes(app, services.NewArenaService(actor), log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("Server error")
		}
	}()

	log.WithField("port", cfg.Port).Info("✅ Arena server running")
	log.WithField("origins", allowedOrigins).Info("✅ CORS configured")

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Warn("server shutdown failed")
	}
}
