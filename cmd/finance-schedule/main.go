package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-schedule/internal/cache"
	"github.com/iwvelando/finance-schedule/internal/config"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/internal/tracing"
	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	envFile    string
}

func main() {
	opts := &globalOptions{}
	flag.StringVar(&opts.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	flag.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flag.StringVar(&opts.envFile, "env-file", constants.DefaultEnvFile, "environment file loaded before the configuration, if present")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commander.Register(&scheduleCmd{opts: opts, out: os.Stdout}, "schedules")
	commander.Register(&optimizeCmd{opts: opts, out: os.Stdout}, "schedules")
	commander.Register(&serveCmd{opts: opts}, "server")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// loadEnv loads the environment file when it exists. Variables already set
// in the environment win.
func loadEnv(file string) error {
	if file == "" {
		return nil
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load environment file %s: %w", file, err)
	}
	return nil
}

// session holds what the schedule subcommands share once the configuration
// is loaded.
type session struct {
	conf   *config.Configuration
	logger *zap.Logger
	runner *simulation.Runner
	close  func()
}

func (o *globalOptions) open(ctx context.Context) (*session, error) {
	if err := loadEnv(o.envFile); err != nil {
		return nil, err
	}

	conf, err := config.LoadConfiguration(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", o.configPath, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration at %s: %w", o.configPath, err)
	}

	logger, err := initializeLogger(conf.Logging, o.logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	shutdown, err := tracing.Init(ctx, logger, conf.Tracing, version)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	store, err := cache.New(logger, conf.Cache)
	if err != nil {
		_ = shutdown(ctx)
		_ = logger.Sync()
		return nil, err
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main.open"),
		)
	}

	return &session{
		conf:   conf,
		logger: logger,
		runner: simulation.NewRunner(logger, store),
		close: func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close cache", zap.String("op", "main.close"), zap.Error(err))
			}
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush traces", zap.String("op", "main.close"), zap.Error(err))
			}
			_ = logger.Sync()
		},
	}, nil
}
