// Package routes defines the API routing configuration.
// It constructs the repositories, services and handlers and binds
// every route group with its middleware.
package routes

import (
	"log"
	"time"

	"kobo/internal/config"
	"kobo/internal/handlers"
	"kobo/internal/middleware"
	"kobo/internal/models"
	"kobo/internal/repositories"
	"kobo/internal/services/auth"
	"kobo/internal/services/gateway"
	"kobo/internal/services/ledger"
	"kobo/internal/services/ratelimit"
	"kobo/internal/services/rates"
	"kobo/internal/services/reconcile"
	"kobo/internal/services/transfer"
	"kobo/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// NewGatewayRegistry builds the payment gateway registry from the
// environment. Gateways without credentials are left unregistered.
func NewGatewayRegistry() *gateway.Registry {
	registry := gateway.NewRegistry()

	if username := config.GetEnv("CORALPAY_USERNAME", ""); username != "" {
		registry.Register(gateway.NewCoralPay(gateway.CoralPayConfig{
			BaseURL:    config.GetEnv("CORALPAY_BASE_URL", ""),
			Username:   username,
			Password:   config.GetEnv("CORALPAY_PASSWORD", ""),
			MerchantID: config.GetEnv("CORALPAY_MERCHANT_ID", ""),
		}))
	}
	if key := config.GetEnv("PAYSTACK_SECRET_KEY", ""); key != "" {
		registry.Register(gateway.NewPaystack(gateway.PaystackConfig{
			BaseURL:   config.GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey: key,
		}))
	}
	if key := config.GetEnv("STRIPE_SECRET_KEY", ""); key != "" {
		registry.Register(gateway.NewStripe(key))
	}
	if len(registry.Names()) == 0 {
		log.Println("warning: no payment gateways configured, deposits and withdrawals will fail")
	}
	return registry
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, registry *gateway.Registry) {
	// Repositories
	ledgerRepo := repositories.NewLedgerRepository(repositories.DB)
	intentRepo := repositories.NewIntentRepository(repositories.DB)
	rateRepo := repositories.NewRateRepository(repositories.DB)
	cache := repositories.CacheService

	// Services
	engine := ledger.NewService(ledgerRepo, cache, ledger.Config{
		ProcessingTimeout: config.GetDurationEnv("GATEWAY_TIMEOUT", 30*time.Second),
	}, nil)
	walletSvc := wallet.NewService(ledgerRepo, cache)
	transferSvc := transfer.NewService(walletSvc, engine, intentRepo, registry, nil, transfer.Config{
		OTPTTL:        config.GetDurationEnv("OTP_TTL", 5*time.Minute),
		TransferFee:   decimal.RequireFromString(config.GetEnv("TRANSFER_FEE", "0")),
		WithdrawalFee: decimal.RequireFromString(config.GetEnv("WITHDRAWAL_FEE", "0")),
	})
	reconcileSvc := reconcile.NewService(engine, registry)
	rateSvc := rates.NewService(rateRepo, cache, config.GetDurationEnv("RATE_MAX_AGE", time.Hour))

	loginLimiter := ratelimit.New(cache, ratelimit.Config{
		Scope:       "login",
		MaxAttempts: int64(config.GetIntEnv("LOGIN_MAX_ATTEMPTS", 5)),
		Window:      config.GetDurationEnv("LOGIN_LOCKOUT", 15*time.Minute),
	})
	otpLimiter := ratelimit.New(cache, ratelimit.Config{
		Scope:       "activation",
		MaxAttempts: int64(config.GetIntEnv("ACTIVATION_MAX_ATTEMPTS", 3)),
		Window:      config.GetDurationEnv("ACTIVATION_LOCKOUT", 15*time.Minute),
	})
	authSvc := auth.NewService(auth.DBUserStore{}, cache, nil, loginLimiter, otpLimiter)

	// Handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	walletHandler := handlers.NewWalletHandler(walletSvc)
	transferHandler := handlers.NewTransferHandler(transferSvc)
	transactionHandler := handlers.NewTransactionHandler(engine)
	webhookHandler := handlers.NewWebhookHandler(reconcileSvc, config.GetEnv("WEBHOOK_SECRET", ""))
	rateHandler := handlers.NewRateHandler(rateSvc)
	bankHandler := handlers.NewBankHandler(registry)
	authMW := middleware.NewAuthMiddleware(auth.DBUserStore{})

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")

	// Public routes
	api.Post("/register", authHandler.Register)
	api.Post("/activate", authHandler.Activate)
	api.Post("/activate/resend", authHandler.RequestActivation)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	// Gateway callbacks authenticate via signature, not bearer tokens.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/deposits", webhookHandler.DepositCallback)
	webhooks.Post("/withdrawals", webhookHandler.WithdrawalCallback)

	// Authenticated routes
	authenticated := api.Group("/", authMW.Handler)

	authenticated.Post("/logout", authHandler.Logout)
	authenticated.Post("/change-password", authHandler.ChangePassword)

	wallets := authenticated.Group("/wallets", middleware.HasPermission(models.PermWalletRead))
	wallets.Post("/", middleware.HasPermission(models.PermWalletTransact), walletHandler.CreateWallet)
	wallets.Get("/", walletHandler.ListWallets)
	wallets.Get("/:currency", walletHandler.GetWallet)
	wallets.Post("/pin", middleware.HasPermission(models.PermWalletTransact), walletHandler.SetPin)
	wallets.Get("/:id/transactions", transactionHandler.ListWalletTransactions)

	authenticated.Get("/recipients/:tag", walletHandler.ResolveRecipient)
	authenticated.Get("/banks/resolve", bankHandler.ResolveAccount)

	transact := authenticated.Group("/", middleware.HasPermission(models.PermWalletTransact))
	transact.Post("/transfers", transferHandler.RequestTransfer)
	transact.Post("/transfers/confirm", transferHandler.ConfirmTransfer)
	transact.Post("/deposits", transferHandler.RequestDeposit)
	transact.Post("/deposits/confirm", transferHandler.ConfirmDeposit)
	transact.Get("/deposits/:reference/verify", webhookHandler.VerifyDeposit)
	transact.Post("/withdrawals", transferHandler.RequestWithdrawal)
	transact.Post("/withdrawals/confirm", transferHandler.ConfirmWithdrawal)
	transact.Post("/pin-change", transferHandler.RequestPinChange)
	transact.Post("/pin-change/confirm", transferHandler.ConfirmPinChange)

	authenticated.Get("/transactions", middleware.HasPermission(models.PermWalletRead), transactionHandler.ListTransactions)
	authenticated.Get("/transactions/:reference", middleware.HasPermission(models.PermWalletRead), transactionHandler.GetByReference)

	authenticated.Get("/rates", rateHandler.ListRates)
	authenticated.Get("/rates/:from/:to", rateHandler.GetRate)
	authenticated.Post("/rates/convert", rateHandler.Convert)

	// Admin routes
	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Post("/wallets/lock", middleware.HasPermission(models.PermAdminReconcile), walletHandler.LockWallet)
	admin.Post("/wallets/unlock", middleware.HasPermission(models.PermAdminReconcile), walletHandler.UnlockWallet)
}
