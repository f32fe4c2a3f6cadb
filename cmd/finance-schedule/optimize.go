package main

import (
	"context"
	"flag"
	"io"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-schedule/internal/optimizer"
	"github.com/iwvelando/finance-schedule/internal/simulation"
	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/output"
	"go.uber.org/zap"
)

// optimizeCmd searches the shortest installment count within a budget.
type optimizeCmd struct {
	opts *globalOptions
	out  io.Writer

	simulation      string
	maxInstallment  float64
	minInstallments int
	maxInstallments int
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "find the fewest installments that fit a budget" }
func (*optimizeCmd) Usage() string {
	return `finance-schedule [-config <file>] optimize [-simulation <name>] [-budget <amount>] [-min <n>] [-max <n>]

  Searches installment counts for the smallest one whose installment stays
  within the budget. Flags override the optimizer section of the configuration.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.simulation, "simulation", "", "simulation to size")
	f.Float64Var(&c.maxInstallment, "budget", 0, "maximum installment value")
	f.IntVar(&c.minInstallments, "min", 0, "smallest installment count searched")
	f.IntVar(&c.maxInstallments, "max", 0, "largest installment count searched")
}

func (c *optimizeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.opts.open(ctx)
	if err != nil {
		fatalLine("failed to start", err)
		return subcommands.ExitFailure
	}
	defer sess.close()
	logger := sess.logger

	opt := &sess.conf.Optimizer
	if c.simulation != "" {
		opt.Simulation = c.simulation
	}
	if c.maxInstallment > 0 {
		opt.MaxInstallment = c.maxInstallment
	}
	if c.minInstallments > 0 {
		opt.MinInstallments = c.minInstallments
	}
	if c.maxInstallments > 0 {
		opt.MaxInstallments = c.maxInstallments
	}
	opt.Normalize()

	runner, err := optimizer.NewRunner(logger, sess.conf, sess.runner)
	if err != nil {
		logger.Error("failed to initialize optimizer", zap.String("op", "main.optimize"), zap.Error(err))
		return subcommands.ExitFailure
	}
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("optimizer execution failed", zap.String("op", "main.optimize"), zap.Error(err))
		return subcommands.ExitFailure
	}

	if result.Schedule == nil {
		output.PrettyOptimization(c.out, result.Summary)
		return subcommands.ExitSuccess
	}
	results := []simulation.Result{{Name: result.Summary.Simulation, Schedule: result.Schedule}}
	switch sess.conf.Output.Format {
	case constants.OutputFormatCSV:
		if err := output.WriteCsv(c.out, results); err != nil {
			logger.Error("failed to write CSV", zap.String("op", "main.optimize"), zap.Error(err))
			return subcommands.ExitFailure
		}
	default:
		output.PrettyOptimization(c.out, result.Summary)
		output.WritePretty(c.out, results, sess.conf.Output.Currency)
	}
	return subcommands.ExitSuccess
}
