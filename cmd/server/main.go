package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/shop_orders/internal/cache"
	"github.com/Skotchmaster/shop_orders/internal/events"
	"github.com/Skotchmaster/shop_orders/internal/httpserver"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/search"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/pkg/config"
	pkgdb "github.com/Skotchmaster/shop_orders/pkg/db"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/Skotchmaster/shop_orders/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shop_orders/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.Require()

	logger := logging.New(cfg.LogLevel, cfg.LogFile).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ServiceName)
		publisher = kafkaPub
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var (
		orderCache service.OrderCache
		rdb        *redis.Client
	)
	switch {
	case cfg.RedisAddr == "":
		logger.Warn("order_cache_disabled", "reason", "REDIS_ADDR is empty")
	default:
		rdb = cache.NewClient(cfg.RedisAddr)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("order_cache_disabled", "reason", "redis unreachable", "error", err)
			_ = rdb.Close()
			rdb = nil
			break
		}
		orderCache = cache.NewRedisOrderCache(rdb, cfg.OrderCacheTTL)
	}

	var index service.ProductIndex
	if cfg.ElasticURL != "" {
		es, err := search.NewClient(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
		if err != nil {
			logger.Warn("product_search_disabled", "error", err)
		} else {
			index = search.NewESIndex(es, cfg.ElasticIndex)
		}
	}

	r := &repo.GormRepo{DB: db}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Index: index, Events: publisher}},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Cache: orderCache}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Events: publisher, Cache: orderCache}},
		AuthHandler: &httpserver.AuthHTTP{CookieSecure: cfg.CookieSecure, Svc: &service.AuthService{
			Repo:        r,
			JWTSecret:   cfg.JWTAccessSecret,
			AccessTTL:   cfg.AccessTokenTTL,
			AdminEmails: cfg.AdminEmails,
		}},
		JWTSecret:    cfg.JWTAccessSecret,
		CookieSecure: cfg.CookieSecure,
		DB:           db,
		AuthRate:  rate.Limit(cfg.AuthRatePerSec),
		AuthBurst: cfg.AuthRateBurst,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("stopped")
}
