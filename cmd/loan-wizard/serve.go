package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-wizard/internal/analytics"
	"github.com/iwvelando/loan-wizard/internal/config"
	"github.com/iwvelando/loan-wizard/internal/server"
	"github.com/iwvelando/loan-wizard/internal/session"
	"github.com/iwvelando/loan-wizard/internal/store"
	"github.com/iwvelando/loan-wizard/internal/wizard"
	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	serverConfigLocation string
	address              string
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.serverConfigLocation, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&opts.address, "address", "", "listen address override (e.g. :8080)")
	return cmd
}

// service is the wired HTTP handler together with what must be released on exit.
type service struct {
	handler  http.Handler
	sessions *session.Manager
	flags    store.FlagStore
}

func newService(ctx context.Context, logger *zap.Logger, conf *config.Configuration, maxBodySize int64) (*service, error) {
	flags, err := store.Open(ctx, conf.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open flag store: %w", err)
	}

	sink, err := analytics.NewSink(logger, conf.Analytics.Sink, conf.Analytics.Endpoint, conf.Analytics.Timeout)
	if err != nil {
		_ = flags.Close()
		return nil, fmt.Errorf("failed to create analytics sink: %w", err)
	}

	catalog := conf.Catalog()
	factory := func(ctx context.Context, visitorID string) (*wizard.Wizard, error) {
		return wizard.New(ctx, wizard.Options{
			VisitorID: visitorID,
			Catalog:   &catalog,
			Sink:      sink,
			Flags:     flags,
			Logger:    logger,
		})
	}
	sessions := session.NewManager(logger, factory, conf.Session.IdleTimeout)
	sessions.SetMaxSessions(conf.Session.MaxSessions)

	return &service{
		handler:  server.NewHandler(logger, sessions, catalog, maxBodySize, version),
		sessions: sessions,
		flags:    flags,
	}, nil
}

func (s *service) Close() error {
	s.sessions.Stop()
	return s.flags.Close()
}

func mergeLogging(base, override config.LoggingConfig) config.LoggingConfig {
	if override.Level != "" {
		base.Level = override.Level
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.OutputFile != "" {
		base.OutputFile = override.OutputFile
	}
	return base
}

func runServe(ctx context.Context, a *app, opts *serveOptions) error {
	srvConf, err := server.LoadConfig(opts.serverConfigLocation)
	if err != nil {
		return err
	}
	if opts.address != "" {
		srvConf.Address = opts.address
	}

	logger := a.logger
	if srvConf.Logging != (config.LoggingConfig{}) {
		logger, err = initializeLogger(mergeLogging(a.conf.Logging, srvConf.Logging), a.logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize server logger: %w", err)
		}
		defer func() {
			_ = logger.Sync()
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, logger, a.conf, srvConf.BodySizeBytes())
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("failed to close flag store",
				zap.String("op", "main.runServe"),
				zap.Error(err),
			)
		}
	}()

	httpServer := &http.Server{
		Addr:              srvConf.Address,
		Handler:           svc.handler,
		ReadTimeout:       srvConf.ReadTimeout,
		ReadHeaderTimeout: srvConf.ReadTimeout,
		WriteTimeout:      srvConf.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			zap.String("op", "main.runServe"),
			zap.String("address", srvConf.Address),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvConf.ShutdownTimeout)
		defer cancel()

		start := time.Now()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server stopped",
			zap.String("op", "main.runServe"),
			zap.Duration("shutdown", time.Since(start)),
		)
		return nil
	})

	return g.Wait()
}
