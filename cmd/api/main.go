package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"randomnet/internal"
	"randomnet/internal/api"
	"randomnet/internal/config"
	"randomnet/internal/container"
	"randomnet/internal/replicate"

	"github.com/joho/godotenv"
)

func main() {
	// The API binary doubles as its own process worker.
	if len(os.Args) > 1 && os.Args[1] == container.WorkerCommand {
		signal.Ignore(os.Interrupt)
		logger := internal.NewWriterLogger(internal.ParseLogLevel(os.Getenv("LOG_LEVEL")), os.Stderr, "[worker] ")
		if err := replicate.ServeFromEnv(context.Background(), logger); err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer c.Shutdown()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewServer(c.Service, cfg.Engine, cfg.Server, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		c.Logger.Info("Starting API server on %s (worker mode %s)", srv.Addr, cfg.Engine.WorkerMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	c.Logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Engine.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.Logger.Error("Server shutdown: %v", err)
	}
}
