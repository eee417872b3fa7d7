package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/config"
	"rollcall-stats-go/db"
	"rollcall-stats-go/handlers"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve roster analysis over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), a)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	logger := a.logger

	// Only assign the store when Redis is enabled so the handler sees a nil interface otherwise
	var store handlers.ReportStore
	if a.cfg.Redis.Enabled {
		redisClient, err := db.InitializeRedisClient(a.cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis", slog.String("addr", a.cfg.Redis.Addr), slog.Int("db", a.cfg.Redis.DB))

		redisService := db.NewRedisService(redisClient, logger)
		checkReportStore(redisService, logger)
		store = redisService
	} else {
		logger.Warn("Redis is disabled, reports will not be stored")
	}

	gin.SetMode(a.cfg.Server.Mode)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: newRouter(a.cfg.Server, store, analysisOptions(a), logger),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to run server: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newRouter(cfg config.ServerConfig, store handlers.ReportStore, opts analyzer.Options, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	apiHandler := handlers.NewAPIHandler(store, opts, logger)
	apiHandler.MaxUploadBytes = cfg.MaxUploadBytes
	apiHandler.RegisterRoutes(router)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)))
	}
}

// checkReportStore logs how many reports Redis already holds
func checkReportStore(store *db.RedisService, logger *slog.Logger) {
	count, err := store.ReportCount()
	if err != nil {
		logger.Warn("Could not count stored reports", slog.String("error", err.Error()))
		return
	}
	if count == 0 {
		logger.Info("No stored reports found in Redis")
	} else {
		logger.Info("Found stored reports in Redis", slog.Int64("count", count))
	}
}
