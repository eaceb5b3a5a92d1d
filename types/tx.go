// Package types holds the data shapes shared across the indexer: the
// decoded transaction, its compiled instructions, and the account metadata
// derived from a transaction's message header.
package types

// IndexingStatus records where a transaction sits in the pipeline. It only
// ever moves Pending -> Indexed; there is no path back.
type IndexingStatus string

const (
	StatusPending IndexingStatus = "pending"
	StatusIndexed IndexingStatus = "indexed"
)

// AccountMeta is one entry of a transaction's account_keys list, annotated
// with the writable/signer flags derived from the message header.
type AccountMeta struct {
	Pubkey   string
	Writable bool
	Signer   bool
}

// CompiledInstruction is a single instruction as it appears inside a
// transaction's message, before the program id has been resolved to a
// pubkey string.
type CompiledInstruction struct {
	ProgramIDIndex uint16
	AccountIndexes []uint16
	Data           string // base58
}

// Tx is a fetched, decomposed transaction ready for storage and
// instruction extraction.
type Tx struct {
	Hash              string
	Blocktime         int64
	Instructions      []CompiledInstruction
	AccountKeys       []AccountMeta
	IndexingStatus    IndexingStatus
	IndexingTimestamp int64
}

// Instruction is one instruction extracted from a Tx, with its program id
// resolved and its accounts sliced from the parent transaction.
type Instruction struct {
	ID          uint8
	TxHash      string
	ProgramID   string
	Blocktime   int64
	AccountKeys []AccountMeta
	Data        string // base58
}
