package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/gym-management/internal/config"     // environment config
	"github.com/iliyamo/gym-management/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/gym-management/internal/handler"    // HTTP handlers
	"github.com/iliyamo/gym-management/internal/logging"    // zap logger
	"github.com/iliyamo/gym-management/internal/middleware" // request log and cache
	"github.com/iliyamo/gym-management/internal/queue"      // audit events
	"github.com/iliyamo/gym-management/internal/repository" // MySQL stores
	"github.com/iliyamo/gym-management/internal/router"     // route registration
	"github.com/iliyamo/gym-management/internal/service"    // business rules
	"github.com/iliyamo/gym-management/internal/utils"      // bcrypt and JWT
)

func main() {
	cfg := config.Load() // Load environment config

	logger, err := logging.New(cfg.IsProd(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, logger)
	if err != nil {
		logger.Fatal("mysql connect failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("schema migration failed", zap.Error(err))
		}
	}

	// Redis is optional: without it responses are simply not cached.
	rcfg := config.LoadRedisConfig()
	rdb, err := rcfg.Connect(ctx)
	if err != nil {
		logger.Warn("redis unavailable; response cache disabled", zap.String("addr", rcfg.Addr), zap.Error(err))
	} else {
		defer rdb.Close()
	}

	// Audit events go to RabbitMQ in the background; a slow or absent broker
	// never holds up a request.
	var wg sync.WaitGroup
	qcfg := config.LoadQueueConfig()
	var pub service.EventPublisher = queue.Nop{}
	if qcfg.Enabled {
		p := queue.NewPublisher(qcfg.URL, qcfg.AuditQueue, qcfg.Buffer, logger.Named("audit"))
		pub = p
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx)
		}()
	}
	if qcfg.ConsumerEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := queue.StartAuditConsumer(ctx, qcfg.URL, qcfg.AuditQueue, qcfg.AuditLogPath, logger.Named("audit-consumer"))
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	// Stores
	accountRepo := repository.NewAccountRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	memberRepo := repository.NewMemberRepo(db)

	// Services
	hasher := utils.NewHasher(cfg.BcryptCost)
	tokens := utils.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)
	roles := service.NewRoleService(roleRepo, accountRepo, cfg.DefaultRole, pub, logger)
	accounts := service.NewAccountService(accountRepo, roles, hasher, pub, logger)
	auth := service.NewAuthService(accountRepo, hasher, tokens, pub, logger)
	members := service.NewMemberService(memberRepo, pub, logger)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(echomw.Recover()) // inside the logger so a panic is logged as a 500

	guard := router.Guard{
		Tokens: tokens,
		Roles:  roles,
		Cache:  middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger.Named("cache")),
		Log:    logger,
	}
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(auth, accounts, logger), guard)
	router.RegisterRoles(e, handler.NewRoleHandler(roles, logger), guard)
	router.RegisterAccounts(e, handler.NewAccountHandler(accounts, roles, logger), guard)
	router.RegisterMembers(e, handler.NewMemberHandler(members, logger), guard)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	wg.Wait()
	logger.Info("server stopped")
}
