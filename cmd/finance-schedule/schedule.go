package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/output"
	"github.com/iwvelando/finance-schedule/pkg/validation"
	"go.uber.org/zap"
)

// scheduleCmd prints the schedules of the configured simulations.
type scheduleCmd struct {
	opts *globalOptions
	out  io.Writer

	outputFormat string
	currency     string
	simulation   string
}

func (*scheduleCmd) Name() string     { return "schedule" }
func (*scheduleCmd) Synopsis() string { return "compute the payment schedules of the configured simulations" }
func (*scheduleCmd) Usage() string {
	return `finance-schedule [-config <file>] schedule [-output-format pretty|csv] [-currency <code>] [-simulation <name>]

  Computes the schedule of every active simulation, or of the named one.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputFormat, "output-format", "", "type of output override: pretty, csv")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency override for pretty output")
	f.StringVar(&c.simulation, "simulation", "", "compute only this simulation, even when inactive")
}

func (c *scheduleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.opts.open(ctx)
	if err != nil {
		fatalLine("failed to start", err)
		return subcommands.ExitFailure
	}
	defer sess.close()
	logger := sess.logger

	outputFormat := sess.conf.Output.Format
	if c.outputFormat != "" {
		outputFormat = c.outputFormat
	}
	currency := sess.conf.Output.Currency
	if c.currency != "" {
		currency = strings.ToUpper(c.currency)
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Error(err.Error(), zap.String("op", "main.schedule"))
		return subcommands.ExitUsageError
	}
	if err := validation.ValidateCurrency(currency); err != nil {
		logger.Error(err.Error(), zap.String("op", "main.schedule"))
		return subcommands.ExitUsageError
	}

	var results []simulation.Result
	if c.simulation != "" {
		sim, ok := sess.conf.FindSimulation(c.simulation)
		if !ok {
			logger.Error(fmt.Sprintf("simulation %s not found", c.simulation), zap.String("op", "main.schedule"))
			return subcommands.ExitUsageError
		}
		result, err := sess.runner.RunSimulation(ctx, *sess.conf, sim)
		if err != nil {
			logger.Error("failed to compute schedule", zap.String("op", "main.schedule"), zap.Error(err))
			return subcommands.ExitFailure
		}
		results = append(results, result)
	} else {
		results, err = sess.runner.Run(ctx, *sess.conf)
		if err != nil {
			logger.Error("failed to compute schedules", zap.String("op", "main.schedule"), zap.Error(err))
			return subcommands.ExitFailure
		}
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.WritePretty(c.out, results, currency)
	case constants.OutputFormatCSV:
		if err := output.WriteCsv(c.out, results); err != nil {
			logger.Error("failed to write CSV", zap.String("op", "main.schedule"), zap.Error(err))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
