package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deppfellow/gitminer/internal/config"
	"github.com/deppfellow/gitminer/internal/database"
	"github.com/deppfellow/gitminer/internal/handler"
	"github.com/deppfellow/gitminer/internal/logger"
	"github.com/deppfellow/gitminer/internal/repository"
	"github.com/deppfellow/gitminer/internal/repository/postgres"
	"github.com/deppfellow/gitminer/internal/repository/sqlite"
	"github.com/deppfellow/gitminer/internal/router"
	"github.com/deppfellow/gitminer/internal/server"
	"github.com/deppfellow/gitminer/internal/service"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(command *cobra.Command, args []string) error {
			return serve(command.Context(), skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false,
		"Do not apply PostgreSQL migrations on startup")
	return cmd
}

func serve(parent context.Context, skipMigrations bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Driver == config.DriverPostgres && !skipMigrations {
		if err := database.Migrate(ctx, &log, cfg); err != nil {
			log.Error().Err(err).Msg("failed to migrate database")
			return err
		}
	}

	srv, err := server.New(ctx, cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	var repos *repository.Repositories
	if srv.Lite != nil {
		repos = sqlite.NewRepositories(srv.Lite.DB)
	} else {
		repos = postgres.NewRepositories(srv.DB.Pool)
	}

	if srv.Job != nil {
		srv.Job.InitHandlers(repos.User)
		if err := srv.Job.Start(); err != nil {
			log.Error().Err(err).Msg("failed to start job server, continuing without background jobs")
			if err := srv.Job.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close job client")
			}
			srv.Job = nil
		}
	}

	services := service.NewServices(srv, repos)
	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			_ = srv.Shutdown(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
