package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"intervue/internal/ai"
	"intervue/internal/controller"
	"intervue/internal/handler"
	"intervue/internal/store"
	"intervue/internal/utils/extractor"
	"intervue/internal/utils/sse"
	rabbit "intervue/pkg/rabbit/pkg"
	redis "intervue/pkg/redis/pkg"
)

func startHTTP(logger *zap.Logger) {
	aiConfig := ai.ReadConfig()
	gateway := ai.New(aiConfig, logger)
	storage := store.New(store.ReadConfig(), logger)

	redisClient, err := redis.New(redis.ReadConfig())
	if err != nil {
		logger.Warn("Redis unavailable, speech cache disabled", zap.Error(err))
		redisClient = nil
	}

	broker := rabbit.New(rabbit.ReadConfig())
	registry := controller.NewRegistry(logger)

	viper.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET")
	tokens := extractor.New(viper.GetString("auth.jwt_secret"))

	h := handler.New(handler.Options{
		Registry:  registry,
		Store:     storage,
		Gateway:   gateway,
		Redis:     redisClient,
		Rabbit:    broker,
		Events:    sse.Broker{},
		Extractor: tokens,
		Voice:     aiConfig.Voice,
		Logger:    logger,
	})

	e := echo.New()
	e.HideBanner = true
	h.Register(e)

	port := viper.GetString("server.port")
	if port == "" {
		port = "8080"
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", port))
		if err := e.Start(fmt.Sprintf(":%s", port)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down HTTP server...")

	registry.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("HTTP server stopped")
}
