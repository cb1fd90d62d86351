package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wattend/internal/attendance"
	"wattend/internal/auth"
	"wattend/internal/config"
	"wattend/internal/handler"
	"wattend/internal/httpmiddleware"
	"wattend/internal/identity"
	"wattend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "production" || env == "prod" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

func run(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	cutoff, err := attendance.ParseCutoff(cfg.LateCutoff)
	if err != nil {
		return err
	}

	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	identityRepo := identity.NewRepository(db.Client)
	ledger := attendance.NewRepository(db.Client)
	attSvc := attendance.NewService(ledger, identityRepo, cutoff, logger)
	authSvc := auth.NewService(auth.NewRepository(db.Client), cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	h := handler.New(attSvc, identityRepo, authSvc, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(logger, "/healthz", "/metrics"))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Backend is running...")
	})
	r.GET("/healthz", func(c *gin.Context) {
		if !db.Healthy(c.Request.Context()) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": true})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)

	guarded := api.Group("")
	if cfg.AuthRequired {
		guarded.Use(auth.Bearer(cfg.JWTSecret, cfg.JWTIssuer))
	}
	guarded.POST("/attendance/mark", h.MarkAttendance)
	guarded.GET("/attendance", h.ListAttendance)
	guarded.GET("/attendance/summary", h.SummarizeAttendance)
	guarded.GET("/attendance/export", h.ExportAttendance)
	guarded.POST("/students", h.CreateStudent)
	guarded.GET("/students", h.ListStudents)
	guarded.POST("/staff", h.CreateStaff)
	guarded.GET("/staff", h.ListStaff)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
