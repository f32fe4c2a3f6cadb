// Package constants provides shared constants for the finance-schedule application.
package constants

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = "2006-01-02"

// Calendar and rate constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// MonthsPerSemester is the number of months in a semiannual period
	MonthsPerSemester = 6

	// ActualDaysPerMonth is the average month length used to derive a daily
	// rate when elapsed time is counted in exact calendar days.
	ActualDaysPerMonth = 30.4375

	// CommercialDaysPerMonth is the fixed month length of the commercial
	// (30-day month) convention.
	CommercialDaysPerMonth = 30

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places kept on money amounts
	CurrencyPlaces = 2

	// DefaultFirstBalloonMonth is the installment month of the first balloon
	// under the anchored policy when none is given.
	DefaultFirstBalloonMonth = 12
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// DefaultCurrency is the ISO 4217 code used when formatting amounts
	DefaultCurrency = "BRL"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is loaded before the configuration when present
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultServiceName identifies traces and metrics
	DefaultServiceName = "finance-schedule"
)

// Rate constants
const (
	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
