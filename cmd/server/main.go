package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Xiaomckedou233/XiaoLive/internal/core/services"
	httphandlers "github.com/Xiaomckedou233/XiaoLive/internal/handlers/http"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/gateway"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/middleware"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/monitoring"
	"github.com/Xiaomckedou233/XiaoLive/internal/infrastructure/repositories"
	"github.com/Xiaomckedou233/XiaoLive/pkg/config"
	"github.com/Xiaomckedou233/XiaoLive/pkg/logger"
	"github.com/Xiaomckedou233/XiaoLive/pkg/tracing"
)

func main() {
	configPaths := []string{
		"configs/config.yaml",
		"./config.yaml",
		"/etc/xiaolive/config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "xiaolive",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: "production",
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		sugar.Fatalw("failed to initialize tracing", "error", err)
	}

	factory, err := repositories.NewRepositoryFactory(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to initialize storage", "error", err)
	}

	var collector *monitoring.Collector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewCollector()
	}

	hub := gateway.NewHub(sugar, collector)

	chatService := services.NewChatService(
		factory.CreateUserRepository(),
		factory.CreateMessageRepository(),
		hub,
		services.Options{
			PageSize:     cfg.Chat.PageSize,
			DanmakuLimit: cfg.Chat.DanmakuLimit,
			MuteUnit:     cfg.Chat.MuteUnit,
		},
		sugar,
	)

	wsServer := gateway.NewWebSocketServer(hub, chatService, cfg, sugar, collector)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.MetricsMiddleware(collector))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	danmakuHandler := httphandlers.NewDanmakuHandler(chatService, cfg.Stream.URL, sugar)
	danmakuHandler.SetupRoutes(router)

	adminHandler := httphandlers.NewAdminHandler(chatService, cfg.Admin.Token, sugar)
	adminHandler.SetupRoutes(router)

	healthHandler := httphandlers.NewHealthHandler(monitoring.NewHealthChecker(factory))
	healthHandler.SetupRoutes(router)

	router.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sugar.Infow("XiaoLive server listening",
			"address", cfg.Server.Address,
			"storage", cfg.Storage.Type,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
	}
	hub.CloseAll()
	if err := factory.Close(); err != nil {
		sugar.Errorw("storage close failed", "error", err)
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		sugar.Errorw("tracer shutdown failed", "error", err)
	}
}
