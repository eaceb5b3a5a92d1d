// Package store persists transactions and instructions to Postgres,
// providing the idempotent upserts the fetcher and processor rely on for
// at-least-once delivery.
package store

import (
	"context"

	"github.com/sociallayer-im/solindexer/types"
)

// Store is the persistence contract the fetcher and processor depend on.
// All inserts are idempotent: re-inserting an already-recorded row is a
// no-op, never an error.
type Store interface {
	// InsertTx records tx as Pending. A tx already on record is left
	// untouched.
	InsertTx(ctx context.Context, tx *types.Tx) error

	// UpdateTx sets hash's indexing_status, normally to Indexed once every
	// instruction has been processed.
	UpdateTx(ctx context.Context, hash string, status types.IndexingStatus) error

	// InsertInstruction records instr. An instruction already on record
	// for its (tx_hash, id) is left untouched.
	InsertInstruction(ctx context.Context, instr *types.Instruction) error

	// MostRecentTx returns the hash of the most recently recorded
	// transaction by blocktime, or "" if the store is empty.
	MostRecentTx(ctx context.Context) (string, error)

	// RecordedTx reports whether hash is already recorded with status
	// Indexed.
	RecordedTx(ctx context.Context, hash string) (bool, error)

	// RecordedInstruction reports whether the instruction (txHash, id) is
	// already recorded.
	RecordedInstruction(ctx context.Context, txHash string, id uint8) (bool, error)

	// Migrate drives the schema to head.
	Migrate(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close()
}
