package store

import (
	"strings"
	"testing"

	"github.com/sociallayer-im/solindexer/config"
)

func TestConnStringRequireSSL(t *testing.T) {
	dsn := connString(config.DatabaseSettings{
		Username:     "indexer",
		Password:     "secret",
		Host:         "db.internal",
		Port:         5432,
		DatabaseName: "indexer",
		RequireSSL:   true,
		SSLRootCert:  "/certs/root.pem",
	})

	if !strings.Contains(dsn, "sslmode=require") {
		t.Errorf("expected sslmode=require in %q", dsn)
	}
	if !strings.Contains(dsn, "sslrootcert=/certs/root.pem") {
		t.Errorf("expected sslrootcert in %q", dsn)
	}
}

func TestConnStringDefaultsToPrefer(t *testing.T) {
	dsn := connString(config.DatabaseSettings{
		Username:     "indexer",
		Password:     "secret",
		Host:         "localhost",
		Port:         5432,
		DatabaseName: "indexer",
		RequireSSL:   false,
	})

	if !strings.Contains(dsn, "sslmode=prefer") {
		t.Errorf("expected sslmode=prefer in %q", dsn)
	}
}
