package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "configuration.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFileAppliesFetcherDefaults(t *testing.T) {
	path := writeTempConfig(t, `
indexer_settings:
  program_id: "11111111111111111111111111111111"
  connection_str: "https://api.mainnet-beta.solana.com"
  timestamp_interval: 5
db_settings:
  username: postgres
  password: postgres
  port: 5432
  host: localhost
  database_name: indexer
  require_ssl: false
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.FetcherSettings == nil {
		t.Fatal("expected default FetcherSettings to be filled in")
	}
	want := DefaultFetchingSettings()
	if *cfg.FetcherSettings != want {
		t.Errorf("got %+v, want %+v", *cfg.FetcherSettings, want)
	}
}

func TestLoadFileCapsTransactionBatchSize(t *testing.T) {
	path := writeTempConfig(t, `
indexer_settings:
  program_id: "x"
  connection_str: "x"
  timestamp_interval: 1
db_settings:
  username: x
  password: x
  port: 5432
  host: localhost
  database_name: x
  require_ssl: false
fetcher_settings:
  rpc_request_timeout: 100
  retry_limit: 10
  transaction_batch_size: 999
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.FetcherSettings.TransactionBatchSize != MaxTransactionBatchSize {
		t.Errorf("got batch size %d, want %d", cfg.FetcherSettings.TransactionBatchSize, MaxTransactionBatchSize)
	}
}

func TestShouldMigrateEnvOverride(t *testing.T) {
	os.Setenv(envMigrate, "true")
	defer os.Unsetenv(envMigrate)

	cfg := Configuration{}
	if !cfg.ShouldMigrate() {
		t.Error("expected ShouldMigrate to honor INDEXER_MIGRATE=true")
	}
}

func TestShouldMigrateFallsBackToConfig(t *testing.T) {
	os.Unsetenv(envMigrate)
	yes := true
	cfg := Configuration{IndexerSettings: IndexerSettings{Migrate: &yes}}
	if !cfg.ShouldMigrate() {
		t.Error("expected ShouldMigrate to fall back to IndexerSettings.Migrate")
	}
}
