// Package constants provides shared constants for the loan-wizard application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of monthly payments in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 kopeck)
	CurrencyTolerance = 0.01
)

// Annual rate tiers, expressed as fractions, by collateral.
const (
	// UnsecuredAnnualRate applies to loans without collateral
	UnsecuredAnnualRate = 0.339

	// AutoSecuredAnnualRate applies to loans secured by a car
	AutoSecuredAnnualRate = 0.27

	// PropertySecuredAnnualRate applies to loans secured by real estate
	PropertySecuredAnnualRate = 0.2807
)

// Wizard input ranges and starting values.
const (
	// MinDesiredPayment is the lowest monthly payment a visitor can target
	MinDesiredPayment = 10_000.0

	// MaxDesiredPayment is the highest monthly payment a visitor can target
	MaxDesiredPayment = 250_000.0

	// DefaultDesiredPayment is the monthly payment preselected on the first step
	DefaultDesiredPayment = 16_000.0

	// MinLoanAmount is the smallest loan regardless of collateral
	MinLoanAmount = 10_000.0

	// BaseMaxLoanAmount is the largest loan without property collateral
	BaseMaxLoanAmount = 7_500_000.0

	// PropertyMaxLoanAmount is the largest loan secured by property
	PropertyMaxLoanAmount = 30_000_000.0

	// MinTermYears is the shortest term regardless of collateral
	MinTermYears = 1

	// BaseMaxTermYears is the longest term without property collateral
	BaseMaxTermYears = 5

	// PropertyMaxTermYears is the longest term secured by property
	PropertyMaxTermYears = 15
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment variables that override configuration keys
	EnvPrefix = "LOAN_WIZARD"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum JSON request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// VisitorCookieName holds the visitor identifier between sessions
	VisitorCookieName = "visitor_id"
)

// Flag store backends
const (
	StoreBackendMemory = "memory"
	StoreBackendSQLite = "sqlite"
	StoreBackendRedis  = "redis"

	// DefaultSQLitePath is the database file used by the sqlite backend
	DefaultSQLitePath = "loan-wizard.db"

	// DefaultRedisKeyPrefix namespaces the completion flags in redis
	DefaultRedisKeyPrefix = "loan-wizard:showThx:"

	// DefaultMaxSessions caps live wizard sessions of the HTTP service
	DefaultMaxSessions = 10_000
)

// Analytics sinks
const (
	AnalyticsSinkLog     = "log"
	AnalyticsSinkHTTP    = "http"
	AnalyticsSinkDiscard = "none"
)
