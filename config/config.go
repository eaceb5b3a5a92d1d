// Package config loads the indexer's configuration.yaml, following the
// same INDEXER_CFG / INDEXER_MIGRATE environment overrides as the rest of
// the ambient stack.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "configuration.yaml"
	envConfigPath     = "INDEXER_CFG"
	envMigrate        = "INDEXER_MIGRATE"
)

// DefaultRPCTimeoutSeconds is used whenever configuration.yaml omits
// indexer_settings.rpc_timeout.
const DefaultRPCTimeoutSeconds = 10

// IndexerSettings configures the engine's top-level behavior.
type IndexerSettings struct {
	ProgramID         string  `yaml:"program_id"`
	ConnectionStr     string  `yaml:"connection_str"`
	TimestampInterval int64   `yaml:"timestamp_interval"`
	RPCTimeout        *uint64 `yaml:"rpc_timeout,omitempty"`
	Migrate           *bool   `yaml:"migrate,omitempty"`
}

// RPCTimeoutDuration resolves the configured rpc_timeout (seconds) to a
// time.Duration, falling back to DefaultRPCTimeoutSeconds when unset.
func (s IndexerSettings) RPCTimeoutDuration() time.Duration {
	if s.RPCTimeout == nil {
		return DefaultRPCTimeoutSeconds * time.Second
	}
	return time.Duration(*s.RPCTimeout) * time.Second
}

// DatabaseSettings configures the Postgres connection the Store uses.
type DatabaseSettings struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Port         uint16 `yaml:"port"`
	Host         string `yaml:"host"`
	DatabaseName string `yaml:"database_name"`
	RequireSSL   bool   `yaml:"require_ssl"`
	SSLRootCert  string `yaml:"ssl_root_cert,omitempty"`
}

// FetchingSettings configures the fetcher's RPC and batching behavior.
type FetchingSettings struct {
	RPCRequestTimeoutMs  uint64 `yaml:"rpc_request_timeout"`
	RetryLimit           uint64 `yaml:"retry_limit"`
	TransactionBatchSize uint64 `yaml:"transaction_batch_size"`
}

// MaxTransactionBatchSize caps TransactionBatchSize regardless of what
// configuration.yaml requests.
const MaxTransactionBatchSize = 20

// DefaultFetchingSettings returns the fetcher's built-in defaults, used
// whenever configuration.yaml omits fetcher_settings.
func DefaultFetchingSettings() FetchingSettings {
	return FetchingSettings{
		RPCRequestTimeoutMs:  100,
		RetryLimit:           10,
		TransactionBatchSize: MaxTransactionBatchSize,
	}
}

// Configuration is the top-level configuration.yaml shape.
type Configuration struct {
	IndexerSettings IndexerSettings   `yaml:"indexer_settings"`
	DBSettings      DatabaseSettings  `yaml:"db_settings"`
	FetcherSettings *FetchingSettings `yaml:"fetcher_settings,omitempty"`
}

// Load reads configuration from the path named by INDEXER_CFG, defaulting
// to "configuration.yaml" in the working directory.
func Load() (Configuration, error) {
	path := defaultConfigPath
	if p, ok := os.LookupEnv(envConfigPath); ok && p != "" {
		path = p
	}
	return LoadFile(path)
}

// LoadFile reads and parses a configuration YAML file from an explicit
// path.
func LoadFile(path string) (Configuration, error) {
	var cfg Configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.FetcherSettings == nil {
		defaults := DefaultFetchingSettings()
		cfg.FetcherSettings = &defaults
	}
	if cfg.FetcherSettings.TransactionBatchSize > MaxTransactionBatchSize {
		cfg.FetcherSettings.TransactionBatchSize = MaxTransactionBatchSize
	}
	return cfg, nil
}

// ShouldMigrate resolves whether the Store should run migrations at
// startup: INDEXER_MIGRATE, when set, overrides IndexerSettings.Migrate and
// counts as true only for "1", "true", "TRUE", "y".
func (c Configuration) ShouldMigrate() bool {
	if v, ok := os.LookupEnv(envMigrate); ok {
		switch v {
		case "1", "true", "TRUE", "y":
			return true
		}
		return false
	}
	if c.IndexerSettings.Migrate != nil {
		return *c.IndexerSettings.Migrate
	}
	return false
}
