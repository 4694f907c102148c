package http

import (
	"context"
	"log/slog"
	"time"

	"net/http"

	"github.com/ayushrkl/ratehub/internal/auth"
	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/http/handlers"
	"github.com/ayushrkl/ratehub/internal/http/middlewares"
	"github.com/ayushrkl/ratehub/internal/observability"
	"github.com/ayushrkl/ratehub/internal/redisclient"
	"github.com/ayushrkl/ratehub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// observability first

	registry := prometheus.NewRegistry()
	prom := observability.NewProm(registry)

	// middleware

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))
	r.Use(otelgin.Middleware("ratehub"))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(1 << 20)) // 1 MiB

	// health + metrics
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	storesRepo := postgres.NewStoresRepo(pool, prom)
	ratingsRepo := postgres.NewRatingsRepo(pool, prom)
	statsRepo := postgres.NewStatsRepo(pool, prom)

	// credential service + guard
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	guard := middlewares.NewAuthMiddleware(jwtManager)

	// rate limit the public auth surface; Redis when configured so the
	// window is shared across instances, in-process buckets otherwise.
	var counter middlewares.CounterStore = middlewares.NewMemoryStore()

	if cfg.RedisAddr != "" {
		counter = redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	authLimiter := middlewares.NewRateLimiter(counter, cfg.AuthRateLimit, cfg.AuthRateWindow())

	// handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	usersHandler := handlers.NewUsersHandler(usersRepo, storesRepo, ratingsRepo)
	adminHandler := handlers.NewAdminHandler(usersRepo, usersRepo, storesRepo, storesRepo, statsRepo)
	ownerHandler := handlers.NewStoreOwnerHandler(usersRepo, storesRepo, ratingsRepo)

	// public
	authGroup := r.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// user role
	userGroup := r.Group("/users")
	userGroup.Use(guard.RequireAuth(), guard.RequireRole(user.RoleUser))
	userGroup.PUT("/change-password", usersHandler.ChangePassword)
	userGroup.GET("/stores", usersHandler.BrowseStores)
	userGroup.POST("/ratings", usersHandler.SubmitRating)

	// admin role
	adminGroup := r.Group("/admin")
	adminGroup.Use(guard.RequireAuth(), guard.RequireRole(user.RoleAdmin))
	adminGroup.POST("/add-user", adminHandler.AddUser)
	adminGroup.POST("/add-store", adminHandler.AddStore)
	adminGroup.GET("/dashboard", adminHandler.Dashboard)
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.GET("/stores", adminHandler.ListStores)

	// store_owner role
	ownerGroup := r.Group("/store-owner")
	ownerGroup.Use(guard.RequireAuth(), guard.RequireRole(user.RoleStoreOwner))
	ownerGroup.PUT("/change-password", ownerHandler.ChangePassword)
	ownerGroup.GET("/dashboard", ownerHandler.Dashboard)

	// authenticated, any role
	r.GET("/test-protected", guard.RequireAuth(), guard.RequireRole(), func(ctx *gin.Context) {
		id, _ := middlewares.UserIDFromContext(ctx)
		email, _ := middlewares.EmailFromContext(ctx)
		role, _ := middlewares.RoleFromContext(ctx)

		ctx.JSON(http.StatusOK, gin.H{
			"message": "You are authenticated!",
			"user": gin.H{
				"id":    id,
				"email": email,
				"role":  role,
			},
		})
	})

	return r
}
