package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/shopcore/internal/config"
	httpx "github.com/you/shopcore/internal/http"
	"github.com/you/shopcore/internal/http/handlers"
	"github.com/you/shopcore/internal/http/middleware"
	"github.com/you/shopcore/internal/infrastructure/auth"
	"github.com/you/shopcore/internal/infrastructure/database"
	"github.com/you/shopcore/internal/infrastructure/notifications"
	"github.com/you/shopcore/internal/infrastructure/repositories"
	"github.com/you/shopcore/internal/services"
)

func Run(cfg *config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	gdb, err := database.Open(cfg.DSN)
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(gdb); err != nil {
		return err
	}

	cas, err := auth.NewCasbinService(gdb, cfg.CasbinModelPath)
	if err != nil {
		return err
	}

	rdb := database.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTimeout).Client
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return err
	}

	// Infrastructure services
	tokenSvc := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	notificationSvc := notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)
	eventSink := notifications.NewLoggingSessionEventSink(logger)

	// Repositories and stores
	accountRepo := repositories.NewAccountRepository(gdb)
	orderRepo := repositories.NewOrderRepository(gdb)
	challenges := repositories.NewChallengeStore(rdb, repositories.ChallengeConfig{
		CodeLength: cfg.OTPLength,
		TTL:        cfg.OTPTTL,
		Cooldown:   cfg.OTPCooldown,
	})
	revocations := repositories.NewRevocationRegistry(rdb, cfg.RevocationFailClosed, logger)
	sendLimiter := repositories.NewRateLimiter(rdb, "otp:rl:", cfg.OTPSendLimit, cfg.OTPSendWindow)

	// Core services
	sessionSvc := services.NewSessionService(
		accountRepo, challenges, tokenSvc, revocations,
		notificationSvc, sendLimiter, eventSink, cfg.AccessTTL, logger,
	)
	ledgerSvc := services.NewLedgerService(accountRepo, orderRepo, logger)

	// Handlers and middleware
	authH := handlers.NewAuthHandlers(sessionSvc)
	orderH := handlers.NewOrderHandlers(ledgerSvc)
	jwtMW := middleware.NewAuthMW(tokenSvc, revocations, accountRepo)
	gateMW := middleware.NewModuleGateMW(cas.E)

	r := httpx.BuildRouter(authH, orderH, jwtMW, gateMW, cfg.RequestTimeout)

	policies, _ := cas.E.GetPolicy()
	if len(policies) == 0 {
		cas.E.AddPolicy("module_orders", "/orders/*", "(GET|POST)")
		cas.E.AddPolicy("module_wallet", "/wallet/*", "(GET|POST)")
		_ = cas.E.SavePolicy()
		logger.Info("casbin_seeded_default_policies")
	}

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, r)
}
