package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/solar-site/config"
	"github.com/angeloszaimis/solar-site/internal/contact"
	"github.com/angeloszaimis/solar-site/internal/csvstore"
	"github.com/angeloszaimis/solar-site/internal/httpserver"
	"github.com/angeloszaimis/solar-site/internal/metrics"
	"github.com/angeloszaimis/solar-site/internal/static"
	"github.com/angeloszaimis/solar-site/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "solar-site",
		Short:         "Serve the solar energy landing page and its contact form",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				slog.Error("failed to load config", slog.Any("err", err))
				return err
			}

			log := logger.New(cfg.Logging.Level, cfg.Server.Environment == config.EnvDev, cfg.Server.Environment)

			a, err := newApp(cfg, log)
			if err != nil {
				log.Error("Failed to start", slog.Any("err", err))
				return err
			}

			if err := a.run(cmd.Context()); err != nil {
				log.Error("Server stopped with error", slog.Any("err", err))
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a config file (default ./config/config.yaml or ./config.yaml)")
	flags.IntP("port", "p", config.DefaultPort, "port to listen on, also read from $PORT")
	flags.String("host", "0.0.0.0", "interface to bind")
	flags.String("root", "./public", "directory holding the site files")
	flags.String("data-dir", "./data", "directory for the submissions CSV")
	flags.String("log-level", config.LogLevelInfo, "debug, info, warn or error")
	flags.String("metrics", "", "host:port for the metrics listener, disabled when empty")

	return cmd
}

type app struct {
	log       *slog.Logger
	store     *csvstore.Store
	collector *metrics.Collector
	handler   http.Handler
	server    *httpserver.Server
	admin     *httpserver.Server
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	store, err := csvstore.Open(csvstore.Options{
		DataDir:     cfg.Storage.DataDir,
		FileName:    cfg.Storage.FileName,
		FallbackDir: cfg.Storage.FallbackDir,
	}, log)
	if err != nil {
		return nil, err
	}

	site, err := static.New(cfg.Static.Root, cfg.Static.CSP, log)
	if err != nil {
		return nil, fmt.Errorf("static root %q: %w", cfg.Static.Root, err)
	}
	if info, err := os.Stat(site.Root()); err != nil || !info.IsDir() {
		log.Warn("Static root is not a directory, every page will 404", slog.String("root", site.Root()))
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log)
	contactHandler := contact.NewHandler(log, store, cfg.Contact.MaxBodyBytes)
	siteHandler := setupRouter(log, contactHandler, site, collector)

	timeouts := httpserver.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	}

	srv, err := httpserver.New(cfg.Server.Address(), siteHandler, timeouts)
	if err != nil {
		return nil, fmt.Errorf("listen address %q: %w", cfg.Server.Address(), err)
	}

	a := &app{
		log:       log,
		store:     store,
		collector: collector,
		handler:   siteHandler,
		server:    srv,
	}

	if cfg.Metrics.Address != "" {
		a.admin, err = httpserver.New(cfg.Metrics.Address, setupAdminRouter(collector), timeouts)
		if err != nil {
			return nil, fmt.Errorf("metrics address %q: %w", cfg.Metrics.Address, err)
		}
	}

	return a, nil
}

// run serves until ctx is cancelled or a listener fails.
func (a *app) run(ctx context.Context) error {
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	a.collector.Start(collectorCtx)

	if err := a.server.Listen(); err != nil {
		return err
	}
	if a.admin != nil {
		if err := a.admin.Listen(); err != nil {
			return err
		}
	}

	srvErrCh := make(chan error, 2)

	go func() {
		srvErrCh <- a.server.Start()
	}()

	_, port, _ := net.SplitHostPort(a.server.Addr())
	a.log.Info(fmt.Sprintf("Server running at http://localhost:%s", port),
		slog.String("addr", a.server.Addr()),
		slog.String("store", a.store.Path()),
		slog.Bool("store_fallback", a.store.Fallback()))

	if a.admin != nil {
		go func() {
			srvErrCh <- a.admin.Start()
		}()
		a.log.Info("Metrics listening", slog.String("addr", a.admin.Addr()))
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down gracefully...")
	case err := <-srvErrCh:
		runErr = err
	}

	if err := a.server.Shutdown(context.Background()); err != nil {
		a.log.Error("Error during shutdown", slog.Any("err", err))
	}
	if a.admin != nil {
		if err := a.admin.Shutdown(context.Background()); err != nil {
			a.log.Error("Error during metrics shutdown", slog.Any("err", err))
		}
	}

	stopCollector()
	<-a.collector.Done()

	snap := a.collector.Snapshot()
	a.log.Info("Served requests",
		slog.Int64("total", snap.TotalRequests),
		slog.Duration("uptime", snap.Uptime))

	return runErr
}
