package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/desertthunder/rsx/internal/repositories"
	"github.com/desertthunder/rsx/internal/server"
	"github.com/desertthunder/rsx/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve opens the database, binds the listener, and serves lookups until SIGINT or SIGTERM.
//
// A bind failure is returned before any connection is accepted, so the process exits non-zero.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, config)

	return r.serve(ctx, config, cmd.Bool("migrate"))
}

// serve runs the lookup server described by config until ctx is cancelled or a signal arrives.
func (r *Runner) serve(ctx context.Context, config *shared.Config, migrate bool) error {
	if err := config.Validate(); err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))

	db, dialect, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrConnection, err)
	}
	defer db.Close()

	maxOpen := config.Database.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = config.Server.MaxConns
	}
	shared.ConfigureDatabase(db, maxOpen, 0)

	if migrate {
		r.logger.Info("running database migrations", "driver", dialect.Driver)
		if err := shared.RunMigrations(db, dialect); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	repo := repositories.NewRecordRepository(db, dialect)
	srv, err := server.New(repo, server.OptionsFromConfig(config.Server, r.logger))
	if err != nil {
		return err
	}
	defer srv.Close(shutdownTimeout)

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Server.StatusPort > 0 {
		addr := net.JoinHostPort(config.Server.Host, strconv.Itoa(config.Server.StatusPort))
		status := server.NewStatusServer(addr, srv, r.logger)
		go func() {
			r.logger.Info("status server listening", "addr", addr)
			if err := status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			status.Shutdown(sctx)
		}()
	}

	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	r.logger.Info("shutting down", "stats", srv.Stats())
	return nil
}

// applyServeFlags overrides listener settings given on the command line.
func applyServeFlags(cmd *cli.Command, config *shared.Config) {
	if cmd.IsSet("host") {
		config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		config.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("max-conns") {
		config.Server.MaxConns = int(cmd.Int("max-conns"))
	}
}
