package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"clubhub/cmd/buildCFG"
	"clubhub/internal/api/api"
	"clubhub/internal/api/handlers"
	"clubhub/internal/auth"
	"clubhub/internal/mailer"
	"clubhub/internal/notify"
	"clubhub/internal/rabbit"
	"clubhub/internal/repo"
	"clubhub/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "CLUBHUB"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	if err := db.Master.Ping(); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	if err := repository.MigrateUp(buildCFG.BuildMigrationsDir(cfg)); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()
	publisher := notify.NewRabbitPublisher(rmq, rabbitCfg.PublishTimeout, &log)

	authCfg, err := buildCFG.BuildAuthConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth config")
	}
	tokens := auth.NewTokens(authCfg.JWTSecret, authCfg.TokenTTL)

	opts := []service.Option{
		service.WithBypassRoles(buildCFG.BuildWorkflowConfig(cfg).BypassRoles...),
	}
	mailCfg, err := buildCFG.BuildMailConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid mail config")
	}
	if mailCfg.Enabled {
		opts = append(opts, service.WithMailer(mailer.New(mailCfg.Config, &log)))
	}

	serviceInstance := service.NewService(repository, publisher, &log, opts...)
	app := api.NewRouters(&api.Routers{
		Mode:     serverCfg.Mode,
		Handlers: handlers.New(serviceInstance, &log, auth.ActorFrom),
		Auth:     auth.Middleware(tokens, repository, &log),
	})

	srv := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}
	log.Info().Msg("Shutdown complete")
}
