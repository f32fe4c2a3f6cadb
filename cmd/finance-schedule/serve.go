package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-schedule/internal/cache"
	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/server"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/internal/tracing"
	"github.com/iwvelando/finance-schedule/pkg/constants"
	"go.uber.org/zap"
)

// serveCmd runs the HTTP API.
type serveCmd struct {
	opts *globalOptions

	serverConfig string
	address      string
	uploadSize   string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the schedule API over HTTP" }
func (*serveCmd) Usage() string {
	return `finance-schedule [-config <file>] serve [-server-config <file>] [-address <addr>] [-max-upload-size <size>]

  Serves the schedule API. The configuration file, when present, supplies the
  day count and rate table used by single-schedule requests.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.serverConfig, "server-config", constants.DefaultServerConfigFile, "path to the server configuration file")
	f.StringVar(&c.address, "address", "", "listen address override")
	f.StringVar(&c.uploadSize, "max-upload-size", "", "upload size limit override, e.g. 512K")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := loadEnv(c.opts.envFile); err != nil {
		fatalLine("failed to start", err)
		return subcommands.ExitFailure
	}

	srvConf, err := server.LoadConfig(c.serverConfig)
	if err != nil {
		fatalLine("failed to load server configuration", err)
		return subcommands.ExitFailure
	}
	if c.address != "" {
		srvConf.Address = c.address
	}
	if c.uploadSize != "" {
		size, err := server.ParseSize(c.uploadSize)
		if err != nil {
			fatalLine("invalid upload size", err)
			return subcommands.ExitUsageError
		}
		srvConf.SetUploadSizeBytes(size)
	}

	logger, err := initializeLogger(srvConf.Logging, c.opts.logLevel)
	if err != nil {
		fatalLine("failed to initialize logger", err)
		return subcommands.ExitFailure
	}
	defer func() {
		_ = logger.Sync()
	}()

	defaults, err := c.loadDefaults()
	if err != nil {
		logger.Error("failed to load schedule defaults", zap.String("op", "main.serve"), zap.Error(err))
		return subcommands.ExitFailure
	}

	shutdownTracing, err := tracing.Init(ctx, logger, srvConf.Tracing, version)
	if err != nil {
		logger.Error("failed to initialize tracing", zap.String("op", "main.serve"), zap.Error(err))
		return subcommands.ExitFailure
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to flush traces", zap.String("op", "main.serve"), zap.Error(err))
		}
	}()

	store, err := cache.New(logger, srvConf.Cache)
	if err != nil {
		logger.Error("failed to initialize cache", zap.String("op", "main.serve"), zap.Error(err))
		return subcommands.ExitFailure
	}
	defer func() {
		_ = store.Close()
	}()

	handler := server.NewHandler(logger, server.Options{
		MaxUploadSize: srvConf.UploadSizeBytes(),
		Version:       version,
		Runner:        simulation.NewRunner(logger, store),
		Defaults:      defaults,
	})
	httpServer := &http.Server{Addr: srvConf.Address, Handler: handler}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("listening on %s", srvConf.Address),
			zap.String("op", "main.serve"),
			zap.Int64("maxUploadSize", srvConf.UploadSizeBytes()),
		)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.String("op", "main.serve"), zap.Error(err))
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), srvConf.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.String("op", "main.serve"), zap.Error(err))
			return subcommands.ExitFailure
		}
		logger.Info("server stopped", zap.String("op", "main.serve"))
	}
	return subcommands.ExitSuccess
}

// loadDefaults reads the schedule configuration when it exists.
func (c *serveCmd) loadDefaults() (*config.Configuration, error) {
	if _, err := os.Stat(c.opts.configPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	conf, err := config.LoadConfiguration(c.opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration at %s: %w", c.opts.configPath, err)
	}
	return conf, nil
}
