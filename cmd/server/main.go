package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Adam-Grimes/CINEMA/internal/config"
	"github.com/Adam-Grimes/CINEMA/internal/database"
	mw "github.com/Adam-Grimes/CINEMA/internal/middleware"
	"github.com/Adam-Grimes/CINEMA/internal/queue"
	"github.com/Adam-Grimes/CINEMA/internal/router"
	"github.com/Adam-Grimes/CINEMA/internal/service"
	"github.com/Adam-Grimes/CINEMA/web"
)

func main() {
	config.LoadDotEnv()   // .env is optional
	cfg := config.Load() // Load environment config
	log.SetLevel(parseLevel(cfg.LogLevel))
	log.SetHeader(`${time_rfc3339} ${level} ${short_file}:${line}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.StoreDriver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("close store: %v", err)
		}
	}()
	log.Infof("document store ready (driver=%s)", cfg.StoreDriver)

	var events service.EventPublisher
	evCfg := config.LoadEventsConfig()
	if evCfg.Enabled {
		pub := queue.NewPublisher(evCfg.URL, evCfg.Queue)
		defer pub.Close()
		events = pub
	}
	if evCfg.ConsumerEnabled {
		consumer := &queue.AuditConsumer{URL: evCfg.URL, Queue: evCfg.Queue, LogPath: evCfg.AuditLogPath}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("audit consumer stopped: %v", err)
			}
		}()
	}

	catalog := service.NewCatalog(store, events)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Logger.SetLevel(parseLevel(cfg.LogLevel))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	// Redis is optional: both middlewares pass through when it is nil.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	router.RegisterRoutes(e, store) // Register application routes
	router.RegisterAPI(e, catalog,
		mw.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		mw.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterAdmin(e, web.Public())

	addr := ":" + cfg.Port
	go func() {
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
