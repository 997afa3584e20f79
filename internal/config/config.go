// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"reviewpay/core/billing"
	"reviewpay/core/taxinfo"
	"reviewpay/internal/errors"
	"reviewpay/internal/logging"
)

// Environment variables read by ApplyEnv. Secrets are only ever taken from
// the environment and never written back by Save.
const (
	EnvTaxInfoKey         = "REVIEWPAY_TAXINFO_KEY"
	EnvTaxInfoKeyID       = "REVIEWPAY_TAXINFO_KEY_ID"
	EnvTaxInfoRetiredKeys = "REVIEWPAY_TAXINFO_RETIRED_KEYS"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvLogLevel           = "REVIEWPAY_LOG_LEVEL"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Billing contains the rate card
	Billing BillingConfig `json:"billing" yaml:"billing"`

	// Crypto contains tax-info encryption settings
	Crypto CryptoConfig `json:"crypto" yaml:"crypto"`

	// Database contains persistence settings
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Tracing contains OpenTelemetry settings
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Output contains output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// TaxInfoRatePerSecond limits tax-info registrations per second
	TaxInfoRatePerSecond float64 `json:"tax_info_rate_per_second" yaml:"tax_info_rate_per_second"`

	// TaxInfoBurst is the registration burst size
	TaxInfoBurst int `json:"tax_info_burst" yaml:"tax_info_burst"`

	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// BillingConfig is the rate card. Rates are decimal strings so that they
// are never parsed through a float.
type BillingConfig struct {
	// AgencyFeePerPerson is charged per recruited reviewer, in won
	AgencyFeePerPerson int64 `json:"agency_fee_per_person" yaml:"agency_fee_per_person"`

	// VATRate is applied to the supply price
	VATRate string `json:"vat_rate" yaml:"vat_rate"`

	// CardSurchargeRate is applied to the base amount for card payments
	CardSurchargeRate string `json:"card_surcharge_rate" yaml:"card_surcharge_rate"`

	// WithholdingTaxRate is withheld from reviewer payouts
	WithholdingTaxRate string `json:"withholding_tax_rate" yaml:"withholding_tax_rate"`

	// MinimumWithdrawal is the smallest withdrawal, in won
	MinimumWithdrawal int64 `json:"minimum_withdrawal" yaml:"minimum_withdrawal"`
}

// CryptoConfig contains tax-info encryption settings
type CryptoConfig struct {
	// PrimaryKeyID names the key new envelopes are sealed with
	PrimaryKeyID string `json:"primary_key_id" yaml:"primary_key_id"`

	// PrimaryKey is the secret for PrimaryKeyID
	PrimaryKey string `json:"-" yaml:"-"`

	// RetiredKeys are secrets kept only to decrypt and rotate old envelopes
	RetiredKeys map[string]string `json:"-" yaml:"-"`
}

// DatabaseConfig contains persistence settings
type DatabaseConfig struct {
	// URL is a PostgreSQL connection string; empty selects the in-memory store
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// MaxOpenConns caps the connection pool
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	// Enabled turns on span export
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP/HTTP collector host:port
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// ServiceName is reported on every span
	ServiceName string `json:"service_name" yaml:"service_name"`

	// Insecure disables TLS to the collector
	Insecure bool `json:"insecure" yaml:"insecure"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format (cli, json)
	DefaultFormat string `json:"default_format" yaml:"default_format"`
}

// Default returns a default configuration
func Default() *Config {
	rates := billing.DefaultRates()
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:                   ":8080",
			TaxInfoRatePerSecond:   5,
			TaxInfoBurst:           10,
			ShutdownTimeoutSeconds: 10,
		},
		Billing: BillingConfig{
			AgencyFeePerPerson: rates.AgencyFeePerPerson,
			VATRate:            rates.VATRate.String(),
			CardSurchargeRate:  rates.CardSurchargeRate.String(),
			WithholdingTaxRate: rates.WithholdingTaxRate.String(),
			MinimumWithdrawal:  rates.MinimumWithdrawal,
		},
		Crypto: CryptoConfig{
			PrimaryKeyID: "v1",
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4318",
			ServiceName: "reviewpay",
			Insecure:    true,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns $HOME/.reviewpay/config.yaml
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".reviewpay", "config.yaml")
}

// Load loads configuration from a JSON or YAML file and then applies the
// environment. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := unmarshal(path, data, config); err != nil {
			return nil, errors.Config("parse config file "+path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Config("read config file "+path, err)
	}

	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func unmarshal(path string, data []byte, v interface{}) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// ApplyEnv overlays secrets and overrides from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvTaxInfoKey); v != "" {
		c.Crypto.PrimaryKey = v
	}
	if v := getenv(EnvTaxInfoKeyID); v != "" {
		c.Crypto.PrimaryKeyID = v
	}
	if v := getenv(EnvTaxInfoRetiredKeys); v != "" {
		retired, err := parseKeyList(v)
		if err != nil {
			return err
		}
		c.Crypto.RetiredKeys = retired
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.Database.URL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// parseKeyList parses "id=secret,id=secret". Secrets are base64 and may
// themselves end in '=', so only the first '=' separates.
func parseKeyList(s string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, secret, ok := strings.Cut(pair, "=")
		if !ok || id == "" || secret == "" {
			return nil, errors.Config(EnvTaxInfoRetiredKeys+" must be a list of id=secret pairs", nil)
		}
		if _, dup := keys[id]; dup {
			return nil, errors.Config("duplicate retired key id "+id, nil)
		}
		keys[id] = secret
	}
	return keys, nil
}

// Rates converts the billing section into a validated rate card.
func (c *Config) Rates() (billing.Rates, error) {
	rates := billing.Rates{
		AgencyFeePerPerson: c.Billing.AgencyFeePerPerson,
		MinimumWithdrawal:  c.Billing.MinimumWithdrawal,
	}
	for _, r := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"vat_rate", c.Billing.VATRate, &rates.VATRate},
		{"card_surcharge_rate", c.Billing.CardSurchargeRate, &rates.CardSurchargeRate},
		{"withholding_tax_rate", c.Billing.WithholdingTaxRate, &rates.WithholdingTaxRate},
	} {
		d, err := decimal.NewFromString(r.value)
		if err != nil {
			return billing.Rates{}, errors.Config("billing."+r.name+" is not a decimal", err)
		}
		*r.dst = d
	}
	if err := rates.Validate(); err != nil {
		return billing.Rates{}, errors.Config("invalid billing rates", err)
	}
	return rates, nil
}

// KeyConfig assembles the tax-info key ring. A missing primary secret is a
// configuration error.
func (c *Config) KeyConfig() (taxinfo.KeyConfig, error) {
	if c.Crypto.PrimaryKey == "" {
		return taxinfo.KeyConfig{}, errors.Config(EnvTaxInfoKey+" is not set", nil)
	}
	keys := make(map[string]string, len(c.Crypto.RetiredKeys)+1)
	for id, secret := range c.Crypto.RetiredKeys {
		keys[id] = secret
	}
	if _, clash := keys[c.Crypto.PrimaryKeyID]; clash {
		return taxinfo.KeyConfig{}, errors.Config("retired key id "+c.Crypto.PrimaryKeyID+" collides with the primary key id", nil)
	}
	keys[c.Crypto.PrimaryKeyID] = c.Crypto.PrimaryKey
	return taxinfo.KeyConfig{PrimaryID: c.Crypto.PrimaryKeyID, Keys: keys}, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
