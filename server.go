package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tradedesk/portal_backend/config"
	"github.com/tradedesk/portal_backend/middlewares"
	"github.com/tradedesk/portal_backend/models"
	"github.com/tradedesk/portal_backend/models/reports"
	"github.com/tradedesk/portal_backend/utils"
)

const defaultPort = "8080"

// reportService is set once the database is up.
var reportService atomic.Pointer[reports.Service]

func currentReportService() reportGenerator {
	if svc := reportService.Load(); svc != nil {
		return svc
	}
	return nil
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func correlationIdMiddleware(c *gin.Context) {
	cid := c.GetHeader("x-correlation-id")
	if cid == "" {
		cid = uuid.NewString()
	}
	c.Header("x-correlation-id", cid)
	c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
	c.Next()
}

// readinessGate answers 503 for app routes until DB and redis are connected.
func readinessGate(c *gin.Context) {
	if c.Request.URL.Path == "/healthz" {
		c.Status(http.StatusNoContent)
		c.Abort()
		return
	}
	if config.GetDB() == nil || config.GetRedisDB() == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.Next()
}

func corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit CORS_ALLOWED_ORIGINS allowlist and denies
	// everything without one.
	if config.IsProduction() {
		corsConfig.AllowOrigins = utils.SplitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS"))
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{}
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}

// trustProxies limits which peers may set X-Forwarded-For. With TRUSTED_PROXIES
// unset no proxy is trusted and ClientIP is the socket peer.
func trustProxies(r *gin.Engine, logger *logrus.Logger) {
	if err := r.SetTrustedProxies(utils.SplitAndTrim(os.Getenv("TRUSTED_PROXIES"))); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("invalid TRUSTED_PROXIES: " + err.Error())
		_ = r.SetTrustedProxies(nil)
	}
}

// newRouter wires middlewares and routes. rateLimiter may be nil.
func newRouter(logger *logrus.Logger, loadUser middlewares.UserLoader, generator func() reportGenerator, rateLimiter *RateLimiter) *gin.Engine {
	r := gin.New()
	trustProxies(r, logger)
	r.Use(correlationIdMiddleware)
	r.Use(readinessGate)
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(corsMiddleware())
	if rateLimiter != nil {
		r.Use(rateLimiter.RateLimitMiddleware)
	}
	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.PrincipalMiddleware(loadUser))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/reports", reportsHandler(generator, logger))

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if _, err := utils.JwtSecret(); err != nil {
		logger.WithFields(logrus.Fields{"field": "auth"}).Fatal(err.Error())
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var rateLimiter *RateLimiter
	if rl := config.GetRateLimitSettings(); rl.Enabled {
		rateLimiter = NewRateLimiter(config.GetRedisDB, rl.MaxRequests, rl.Window)
	}

	r := newRouter(logger, middlewares.CachedUserLoader(), currentReportService, rateLimiter)

	// Listen before dependencies are up so the platform health check passes.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	db := config.ConnectDatabaseWithRetry()
	rdb := config.ConnectRedisWithRetry()

	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can lock tables; production runs it as a separate job.
	if !config.SkipMigrations() {
		if err := models.MigrateTable(db); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	var cache reports.Cache
	if rdb != nil {
		cache = reports.NewRedisCache(rdb, config.GetRedisLock())
	}
	reportService.Store(reports.NewService(reports.NewGormStore(db), cache, logger, config.GetReportSettings()))

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
		"port": port,
	}).Info("report API ready")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that recorded errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.Request.URL.Path,
				"status":         c.Writer.Status(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}
