// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/loan-wizard/internal/offer"
	"github.com/iwvelando/loan-wizard/internal/store"
	"github.com/iwvelando/loan-wizard/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for loan-wizard.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty"`
	Products  ProductsConfig  `yaml:"products,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Analytics AnalyticsConfig `yaml:"analytics,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ProductsConfig holds the rate tiers and loan ranges.
type ProductsConfig struct {
	UnsecuredRate     float64 `yaml:"unsecuredRate"`
	AutoRate          float64 `yaml:"autoRate"`
	PropertyRate      float64 `yaml:"propertyRate"`
	MinDesiredPayment float64 `yaml:"minDesiredPayment"`
	MaxDesiredPayment float64 `yaml:"maxDesiredPayment"`
	MinAmount         float64 `yaml:"minAmount"`
	BaseMaxAmount     float64 `yaml:"baseMaxAmount"`
	PropertyMaxAmount float64 `yaml:"propertyMaxAmount"`
	MinTerm           int     `yaml:"minTerm"`
	BaseMaxTerm       int     `yaml:"baseMaxTerm"`
	PropertyMaxTerm   int     `yaml:"propertyMaxTerm"`
}

// StoreConfig selects where completion flags are persisted.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // memory, sqlite, redis
	SQLitePath    string `yaml:"sqlitePath,omitempty"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty"`
	KeyPrefix     string `yaml:"keyPrefix,omitempty"`
}

// AnalyticsConfig selects where leads are sent.
type AnalyticsConfig struct {
	Sink     string        `yaml:"sink"` // log, http, none
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// SessionConfig controls wizard sessions of the HTTP service.
type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idleTimeout,omitempty"`
	MaxSessions int           `yaml:"maxSessions,omitempty"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	catalog := offer.DefaultCatalog()
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("products.unsecuredRate", catalog.UnsecuredRate)
	v.SetDefault("products.autoRate", catalog.AutoRate)
	v.SetDefault("products.propertyRate", catalog.PropertyRate)
	v.SetDefault("products.minDesiredPayment", catalog.MinDesiredPayment)
	v.SetDefault("products.maxDesiredPayment", catalog.MaxDesiredPayment)
	v.SetDefault("products.minAmount", catalog.MinAmount)
	v.SetDefault("products.baseMaxAmount", catalog.BaseMaxAmount)
	v.SetDefault("products.propertyMaxAmount", catalog.PropertyMaxAmount)
	v.SetDefault("products.minTerm", catalog.MinTerm)
	v.SetDefault("products.baseMaxTerm", catalog.BaseMaxTerm)
	v.SetDefault("products.propertyMaxTerm", catalog.PropertyMaxTerm)
	v.SetDefault("store.backend", constants.StoreBackendMemory)
	v.SetDefault("store.sqlitePath", constants.DefaultSQLitePath)
	v.SetDefault("store.redisAddr", "")
	v.SetDefault("store.redisPassword", "")
	v.SetDefault("store.redisDB", 0)
	v.SetDefault("store.keyPrefix", constants.DefaultRedisKeyPrefix)
	v.SetDefault("analytics.sink", constants.AnalyticsSinkLog)
	v.SetDefault("analytics.endpoint", "")
	v.SetDefault("analytics.timeout", "10s")
	v.SetDefault("session.idleTimeout", "30m")
	v.SetDefault("session.maxSessions", constants.DefaultMaxSessions)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys missing from the file take their defaults and
// LOAN_WIZARD_* environment variables override both.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

// Defaults returns the configuration used when no file is given.
func Defaults() (*Configuration, error) {
	return decode(newViper())
}

// Catalog converts the products section into an offer catalog.
func (c *Configuration) Catalog() offer.Catalog {
	p := c.Products
	return offer.Catalog{
		UnsecuredRate:     p.UnsecuredRate,
		AutoRate:          p.AutoRate,
		PropertyRate:      p.PropertyRate,
		MinDesiredPayment: p.MinDesiredPayment,
		MaxDesiredPayment: p.MaxDesiredPayment,
		MinAmount:         p.MinAmount,
		BaseMaxAmount:     p.BaseMaxAmount,
		PropertyMaxAmount: p.PropertyMaxAmount,
		MinTerm:           p.MinTerm,
		BaseMaxTerm:       p.BaseMaxTerm,
		PropertyMaxTerm:   p.PropertyMaxTerm,
	}
}

// StoreOptions converts the store section into store.Options.
func (c *Configuration) StoreOptions() store.Options {
	return store.Options{
		Backend:       c.Store.Backend,
		SQLitePath:    c.Store.SQLitePath,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: c.Store.RedisPassword,
		RedisDB:       c.Store.RedisDB,
		KeyPrefix:     c.Store.KeyPrefix,
	}
}

// Validate returns an error when the configuration cannot be used.
func (c *Configuration) Validate() error {
	if err := c.Catalog().Validate(); err != nil {
		return fmt.Errorf("invalid products: %w", err)
	}

	switch strings.ToLower(c.Store.Backend) {
	case constants.StoreBackendMemory, constants.StoreBackendSQLite:
	case constants.StoreBackendRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redisAddr is required for the %s backend", constants.StoreBackendRedis)
		}
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}

	switch strings.ToLower(c.Analytics.Sink) {
	case constants.AnalyticsSinkLog, constants.AnalyticsSinkDiscard:
	case constants.AnalyticsSinkHTTP:
		if c.Analytics.Endpoint == "" {
			return fmt.Errorf("analytics.endpoint is required for the %s sink", constants.AnalyticsSinkHTTP)
		}
	default:
		return fmt.Errorf("unsupported analytics sink %q", c.Analytics.Sink)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if strings.EqualFold(c.Store.Backend, constants.StoreBackendMemory) {
		warnings = append(warnings, "completion flags are kept in memory and are lost on restart")
	}
	if strings.EqualFold(c.Analytics.Sink, constants.AnalyticsSinkDiscard) {
		warnings = append(warnings, "analytics sink is disabled; submitted leads are discarded")
	}
	if strings.EqualFold(c.Analytics.Sink, constants.AnalyticsSinkHTTP) && c.Analytics.Timeout <= 0 {
		warnings = append(warnings, "analytics timeout is not set; a stalled collector blocks submission indefinitely")
	}
	if c.Session.IdleTimeout <= 0 {
		warnings = append(warnings, "session idle timeout is not set; sessions are never expired")
	}
	if c.Session.MaxSessions <= 0 {
		warnings = append(warnings, "session limit is not set; live sessions are unbounded")
	}

	p := c.Products
	if p.AutoRate > p.UnsecuredRate || p.PropertyRate > p.UnsecuredRate {
		warnings = append(warnings, fmt.Sprintf("secured rates (auto %.4f, property %.4f) exceed the unsecured rate %.4f",
			p.AutoRate, p.PropertyRate, p.UnsecuredRate))
	}
	return warnings
}
