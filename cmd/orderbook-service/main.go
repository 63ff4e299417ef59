package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"google.golang.org/grpc"

	"github.com/muhammadchandra19/orderbook-view/internal/bootstrap"
	"github.com/muhammadchandra19/orderbook-view/internal/rpc"
	"github.com/muhammadchandra19/orderbook-view/pkg/config"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	opts := []logger.Options{logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel))}
	if cfg.App.Environment == "development" {
		opts = append(opts, logger.WithDevelopment())
	}
	l, err := logger.NewLogger(opts...)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	b, err := bootstrap.New(ctx, cfg, l)
	if err != nil {
		l.Error(err, logger.NewField("action", "bootstrap"))
		os.Exit(1)
	}

	// Configured markets stay mounted for the life of the process.
	for _, symbol := range cfg.OrderBook.Symbols {
		_, release, err := b.Manager.Acquire(symbol)
		if err != nil {
			l.Error(err, logger.NewField("market", symbol))
			continue
		}
		defer release()
	}

	handler := rpc.NewHandler(rpc.FromManager(b.Manager), l,
		rpc.WithSnapshotWait(cfg.App.SnapshotWait),
		rpc.WithMetrics(b.Metrics.Handler()),
		rpc.WithHealthChecks(b.HealthChecks()...),
	)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: handler,
	}

	grpcServer := grpc.NewServer()
	b.Health.Register(grpcServer)
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.GRPCPort))
	if err != nil {
		l.Error(err, logger.NewField("action", "grpc_listen"))
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(err, logger.NewField("action", "http_serve"))
			cancel()
		}
	}()
	go func(gs *grpc.Server, lis net.Listener) {
		defer wg.Done()
		if err := gs.Serve(lis); err != nil {
			l.Error(err, logger.NewField("action", "grpc_serve"))
			cancel()
		}
	}(grpcServer, lis)

	if b.Consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Consumer.Start(ctx); err != nil {
				l.Error(err, logger.NewField("action", "order_event_consumer"))
			}
		}()
	}

	l.Info("Order book service started",
		logger.NewField("app", cfg.App.Name),
		logger.NewField("environment", cfg.App.Environment),
		logger.NewField("http_port", cfg.App.Port),
		logger.NewField("grpc_port", cfg.App.GRPCPort),
		logger.NewField("markets", cfg.OrderBook.Symbols),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	l.Info("Shutting down order book service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error(err, logger.NewField("action", "http_shutdown"))
	}
	grpcServer.GracefulStop()
	cancel()
	b.Close(shutdownCtx)
	wg.Wait()

	l.Info("Order book service stopped")
}
