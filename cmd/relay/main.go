package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"clubhub/cmd/buildCFG"
	"clubhub/cmd/middleware"
	"clubhub/internal/auth"
	"clubhub/internal/consumerWorker"
	"clubhub/internal/notify"
	"clubhub/internal/rabbit"
	"clubhub/internal/relay"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "CLUBHUB"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)
	relayCfg := buildCFG.BuildRelayConfig(cfg)

	authCfg, err := buildCFG.BuildAuthConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth config")
	}
	tokens := auth.NewTokens(authCfg.JWTSecret, authCfg.TokenTTL)

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()
	if err := rmq.BindQueue(rabbitCfg.Queue, notify.BindingKey); err != nil {
		log.Fatal().Err(err).Msg("failed to bind relay queue")
	}

	hub := relay.NewHub(relayCfg.Buffer, &log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	reader := consumerWorker.NewReader(rmq, hub, &log)
	if err := reader.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to start relay reader")
	}

	app := ginext.New(serverCfg.Mode)
	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	app.GET("/healthz", health(reader))
	app.GET("/v1/clubs/:clubId/events", relay.Stream(hub, tokens, relayCfg.Heartbeat, &log))

	srv := &http.Server{
		Addr:              ":" + relayCfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting relay on %s", relayCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Relay server error: %v", err)
		exitCode = 1
	case <-reader.Done():
		log.Error().Msg("Relay reader exited, shutting down")
		exitCode = 1
	}

	cancelWorkers()
	reader.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down relay: %v", err)
	}
	log.Info().Msg("Shutdown complete")
	return exitCode
}

type liveness interface {
	Alive() bool
}

func health(reader liveness) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if !reader.Alive() {
			c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "reader down"})
			return
		}
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
