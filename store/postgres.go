package store

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/sociallayer-im/solindexer/config"
	"github.com/sociallayer-im/solindexer/types"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore is the Store implementation backed by a pgx connection
// pool, configured for a single lazily-acquired connection per handle.
type PostgresStore struct {
	pool *pgxpool.Pool
	dsn  string
}

// Open builds a PostgresStore from DatabaseSettings, acquiring connections
// lazily with a single-connection pool health-checked every 2 seconds.
// Acquiring a connection has no timeout of its own; it is bounded only by
// the caller's ctx.
func Open(ctx context.Context, settings config.DatabaseSettings) (*PostgresStore, error) {
	dsn := connString(settings)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse connection string: %w", err)
	}
	poolCfg.MaxConns = 1
	poolCfg.MinConns = 0
	poolCfg.HealthCheckPeriod = 2 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	return &PostgresStore{pool: pool, dsn: dsn}, nil
}

func connString(s config.DatabaseSettings) string {
	sslmode := "prefer"
	if s.RequireSSL {
		sslmode = "require"
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.Username, s.Password, s.Host, s.Port, s.DatabaseName, sslmode,
	)
	if s.RequireSSL && s.SSLRootCert != "" {
		dsn += "&sslrootcert=" + s.SSLRootCert
	}
	return dsn
}

// Migrate drives the schema to head using the embedded migration set. It
// opens a short-lived database/sql handle via pgx's stdlib adapter, since
// golang-migrate's pgx/v5 driver speaks database/sql rather than pgxpool.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: load migrations: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("store: migration setup: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InsertTx records tx as Pending; a duplicate hash is a no-op.
func (s *PostgresStore) InsertTx(ctx context.Context, tx *types.Tx) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (hash, blocktime, indexing_status, indexing_timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO NOTHING
	`, tx.Hash, tx.Blocktime, types.StatusPending, tx.IndexingTimestamp)
	if err != nil {
		return fmt.Errorf("store: insert transaction %s: %w", tx.Hash, err)
	}
	return nil
}

// UpdateTx sets hash's indexing_status.
func (s *PostgresStore) UpdateTx(ctx context.Context, hash string, status types.IndexingStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE transactions SET indexing_status = $1 WHERE hash = $2
	`, status, hash)
	if err != nil {
		return fmt.Errorf("store: update transaction %s: %w", hash, err)
	}
	return nil
}

// InsertInstruction records instr; a duplicate (tx_hash, id) is a no-op.
func (s *PostgresStore) InsertInstruction(ctx context.Context, instr *types.Instruction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO instructions (tx_hash, id, program_id, blocktime, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tx_hash, id) DO NOTHING
	`, instr.TxHash, instr.ID, instr.ProgramID, instr.Blocktime, instr.Data)
	if err != nil {
		return fmt.Errorf("store: insert instruction %s/%d: %w", instr.TxHash, instr.ID, err)
	}
	return nil
}

// MostRecentTx returns the most recently recorded transaction's hash.
func (s *PostgresStore) MostRecentTx(ctx context.Context) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx, `
		SELECT hash FROM transactions ORDER BY blocktime DESC LIMIT 1
	`).Scan(&hash)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: most recent transaction: %w", err)
	}
	return hash, nil
}

// RecordedTx reports whether hash is already recorded with status Indexed.
func (s *PostgresStore) RecordedTx(ctx context.Context, hash string) (bool, error) {
	var status types.IndexingStatus
	err := s.pool.QueryRow(ctx, `
		SELECT indexing_status FROM transactions WHERE hash = $1
	`, hash).Scan(&status)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: recorded transaction %s: %w", hash, err)
	}
	return status == types.StatusIndexed, nil
}

// RecordedInstruction reports whether the instruction (txHash, id) already
// exists.
func (s *PostgresStore) RecordedInstruction(ctx context.Context, txHash string, id uint8) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM instructions WHERE tx_hash = $1 AND id = $2)
	`, txHash, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: recorded instruction %s/%d: %w", txHash, id, err)
	}
	return exists, nil
}
