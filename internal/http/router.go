package http

import (
	"log/slog"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/auth"
	"github.com/AnubisArt/PVA-Model-Banky/internal/authz"
	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/handlers"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/middlewares"
	"github.com/AnubisArt/PVA-Model-Banky/internal/interest"
	"github.com/AnubisArt/PVA-Model-Banky/internal/ledger"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/AnubisArt/PVA-Model-Banky/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, sink audit.Sink, prom *observability.Prom, metrics prometheus.Gatherer) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(nil))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())
	r.Use(prom.GinHandleMiddleware())

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("banka-api"))
	}

	// health + metrics

	healthHandler := handlers.NewHealthHandler(pool)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics, promhttp.HandlerOpts{})))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	accountsRepo := postgres.NewAccountsRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)
	runsRepo := postgres.NewAccrualRunsRepo(pool, prom)

	// domain services

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	gate := authz.NewGate()
	engine := ledger.NewEngine(accountsRepo, sink, cfg.MaxDebt, log, prom)
	accrualJob := interest.NewJob(accountsRepo, runsRepo, sink, cfg.InterestRatePercent, log, prom)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, accountsRepo, jwtManager, refreshRepo, gate, accrualJob, cfg, log)
	usersHandler := handlers.NewUsersHandler(usersRepo)
	accountsHandler := handlers.NewAccountsHandler(accountsRepo, usersRepo)
	transfersHandler := handlers.NewTransfersHandler(engine, accountsRepo)
	auditHandler := handlers.NewAuditHandler(sink, accountsRepo)

	// auth surface, login throttled per client IP

	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	r.POST("/auth/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.POST("/auth/refresh", authHandler.Refresh)
	r.POST("/auth/logout", authHandler.Logout)

	// everything below requires a valid access token plus the command
	// grant for the caller's role

	authMw := middlewares.NewAuthMiddleware(jwtManager)
	authed := r.Group("/", authMw.RequireAuth())

	authed.POST("/transfers", middlewares.RequireCommand(gate, authz.CmdTransfer), transfersHandler.Create)

	authed.GET("/me/balances", middlewares.RequireCommand(gate, authz.CmdViewOwnBalances), accountsHandler.MyBalances)
	authed.GET("/me/accounts", middlewares.RequireCommand(gate, authz.CmdViewOwnAccountNumbers), accountsHandler.MyAccounts)
	authed.GET("/me/transactions", middlewares.RequireCommand(gate, authz.CmdViewOwnTransactionLog), auditHandler.MyTransactions)

	authed.POST("/users", middlewares.RequireCommand(gate, authz.CmdCreateUser), usersHandler.Create)
	authed.POST("/accounts", middlewares.RequireCommand(gate, authz.CmdCreateAccount), accountsHandler.Create)
	authed.GET("/users/:id/balances", middlewares.RequireCommand(gate, authz.CmdViewAnyAccountBalance), accountsHandler.UserBalances)
	authed.GET("/users/:id/accounts", middlewares.RequireCommand(gate, authz.CmdViewAnyAccountNumbers), accountsHandler.UserAccounts)
	authed.GET("/users/:id/transactions", middlewares.RequireCommand(gate, authz.CmdViewFilteredTransactionLogByAccountID), auditHandler.UserTransactions)

	authed.GET("/users", middlewares.RequireCommand(gate, authz.CmdListUsersByRole), usersHandler.ListByRole)
	authed.PUT("/users/:id/role", middlewares.RequireCommand(gate, authz.CmdChangeRole), usersHandler.ChangeRole)
	authed.DELETE("/users/:id", middlewares.RequireCommand(gate, authz.CmdDeleteUser), usersHandler.Delete)

	return r
}
