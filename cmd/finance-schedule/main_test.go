package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-schedule/internal/config"
)

const cliConfig = `
logging:
  level: error
output:
  format: pretty
  currency: usd
optimizer:
  simulation: Car
  maxInstallment: 1000
simulations:
  - name: Car
    active: true
    principal: 12000
    anchor: "2025-01-15"
    installments: 12
  - name: Boat
    active: false
    principal: 3000
    anchor: "2025-01-15"
    installments: 3
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func testOptions(t *testing.T, content string) *globalOptions {
	t.Helper()
	dir := t.TempDir()
	return &globalOptions{
		configPath: writeFile(t, dir, "config.yaml", content),
		envFile:    filepath.Join(dir, ".env"),
	}
}

func execute(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd.Execute(context.Background(), fs)
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{name: "defaults", config: config.LoggingConfig{}},
		{name: "console debug", config: config.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "override wins", config: config.LoggingConfig{Level: "bogus"}, override: "warn"},
		{name: "upper case level", config: config.LoggingConfig{Level: "ERROR"}},
		{name: "invalid level", config: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if (err != nil) != tt.wantErr {
				t.Fatalf("initializeLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && logger == nil {
				t.Fatal("expected a logger")
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "schedule.log")
	logger, err := initializeLogger(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("expected log line in file, got %q", data)
	}
}

func TestLoadEnv(t *testing.T) {
	if err := loadEnv(""); err != nil {
		t.Fatalf("empty path should be ignored, got %v", err)
	}
	if err := loadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}

	const key = "FINANCE_SCHEDULE_TEST_ENV"
	path := writeFile(t, t.TempDir(), ".env", key+"=loaded\n")
	t.Cleanup(func() { _ = os.Unsetenv(key) })
	if err := loadEnv(path); err != nil {
		t.Fatalf("loadEnv() error = %v", err)
	}
	if got := os.Getenv(key); got != "loaded" {
		t.Fatalf("expected variable from env file, got %q", got)
	}
}

func TestScheduleCommandPretty(t *testing.T) {
	var out bytes.Buffer
	cmd := &scheduleCmd{opts: testOptions(t, cliConfig), out: &out}

	if status := execute(t, cmd); status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	text := out.String()
	if !strings.Contains(text, "--- Schedule for simulation Car ---") {
		t.Fatalf("expected Car schedule, got\n%s", text)
	}
	if strings.Contains(text, "Boat") {
		t.Fatalf("inactive simulation should be skipped, got\n%s", text)
	}
	if !strings.Contains(text, "$1,000.00") {
		t.Fatalf("expected USD amounts, got\n%s", text)
	}
}

func TestScheduleCommandOverrides(t *testing.T) {
	var out bytes.Buffer
	cmd := &scheduleCmd{opts: testOptions(t, cliConfig), out: &out}

	status := execute(t, cmd, "-output-format", "csv", "-simulation", "Boat")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "Boat,Installment 1,installment,2025-02-15") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestScheduleCommandFailures(t *testing.T) {
	tests := []struct {
		name   string
		opts   func(t *testing.T) *globalOptions
		args   []string
		status subcommands.ExitStatus
	}{
		{
			name: "missing config",
			opts: func(t *testing.T) *globalOptions {
				return &globalOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
			},
			status: subcommands.ExitFailure,
		},
		{
			name:   "unknown simulation",
			opts:   func(t *testing.T) *globalOptions { return testOptions(t, cliConfig) },
			args:   []string{"-simulation", "Plane"},
			status: subcommands.ExitUsageError,
		},
		{
			name:   "bad output format",
			opts:   func(t *testing.T) *globalOptions { return testOptions(t, cliConfig) },
			args:   []string{"-output-format", "xml"},
			status: subcommands.ExitUsageError,
		},
		{
			name:   "bad currency",
			opts:   func(t *testing.T) *globalOptions { return testOptions(t, cliConfig) },
			args:   []string{"-currency", "zzz"},
			status: subcommands.ExitUsageError,
		},
		{
			name: "invalid terms",
			opts: func(t *testing.T) *globalOptions {
				return testOptions(t, "logging:\n  level: error\nsimulations:\n  - name: Bad\n    active: true\n    price: 100\n    downPayment: 200\n    installments: 2\n")
			},
			status: subcommands.ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := &scheduleCmd{opts: tt.opts(t), out: &out}
			if status := execute(t, cmd, tt.args...); status != tt.status {
				t.Fatalf("expected status %v, got %v", tt.status, status)
			}
		})
	}
}

func TestOptimizeCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := &optimizeCmd{opts: testOptions(t, cliConfig), out: &out}

	if status := execute(t, cmd); status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	text := out.String()
	if !strings.Contains(text, "12 installments of $1,000.00") {
		t.Fatalf("expected 12 installments within budget, got\n%s", text)
	}
	if !strings.Contains(text, "--- Schedule for simulation Car ---") {
		t.Fatalf("expected the sized schedule, got\n%s", text)
	}
}

func TestOptimizeCommandFlagOverrides(t *testing.T) {
	var out bytes.Buffer
	cmd := &optimizeCmd{opts: testOptions(t, cliConfig), out: &out}

	status := execute(t, cmd, "-simulation", "Boat", "-budget", "1500", "-max", "24")
	if status != subcommands.ExitSuccess {
		t.Fatalf("expected success, got %v", status)
	}
	if !strings.Contains(out.String(), "2 installments of $1,500.00") {
		t.Fatalf("expected 2 installments for Boat, got\n%s", out.String())
	}
}
