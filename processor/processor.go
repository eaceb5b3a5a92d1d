// Package processor extracts instructions from a fetched transaction and
// drives them through the registered Executor, persisting each
// instruction the callback accepts before marking the transaction
// Indexed.
package processor

import (
	"context"
	"fmt"

	"github.com/sociallayer-im/solindexer/executor"
	"github.com/sociallayer-im/solindexer/store"
	"github.com/sociallayer-im/solindexer/types"
)

// Manager drives instruction extraction and dispatch for a batch of
// fetched transactions.
type Manager struct {
	store    store.Store
	executor *executor.Guarded
}

// New builds a Manager. The returned Manager has no registered callback;
// ProcessTx fails with ErrEmptyCallback until one is set.
func New(st store.Store) *Manager {
	return &Manager{store: st, executor: executor.NewGuarded(nil)}
}

// SetExecutor registers ex as the callback driven during processing.
func (m *Manager) SetExecutor(ex executor.Executor) { m.executor.Set(ex) }

// ReplaceExecutor swaps in ex and returns whatever callback was previously
// registered.
func (m *Manager) ReplaceExecutor(ex executor.Executor) executor.Executor {
	old := m.executor.Get()
	m.executor.Set(ex)
	return old
}

// ProcessBatch processes every transaction in txs and marks each Indexed
// once its instructions have been dispatched.
func (m *Manager) ProcessBatch(ctx context.Context, txs []*types.Tx) error {
	for _, tx := range txs {
		if err := m.ProcessTx(ctx, tx); err != nil {
			return err
		}
		if err := m.store.UpdateTx(ctx, tx.Hash, types.StatusIndexed); err != nil {
			return err
		}
	}
	return nil
}

// ProcessTx extracts tx's instructions and dispatches each to the
// registered callback, persisting the ones the callback Passes. A Stop
// control flow ends processing of tx's remaining instructions without
// error; the instruction that returned Stop is not persisted.
func (m *Manager) ProcessTx(ctx context.Context, tx *types.Tx) error {
	instructions, err := GetInstructions(tx)
	if err != nil {
		return err
	}

	for _, instr := range instructions {
		recorded, err := m.store.RecordedInstruction(ctx, instr.TxHash, instr.ID)
		if err != nil {
			return fmt.Errorf("processor: recorded instruction check: %w", err)
		}
		if recorded {
			continue
		}

		if !m.executor.HasExecutor() {
			return ErrEmptyCallback
		}

		flow, err := m.executor.ProcessInstruction(ctx, instr)
		if err != nil {
			return fmt.Errorf("processor: process_instruction callback: %w", err)
		}
		switch flow {
		case executor.Skip:
			continue
		case executor.Stop:
			return nil
		}

		if err := m.store.InsertInstruction(ctx, instr); err != nil {
			return err
		}
	}

	return nil
}

// GetInstructions decomposes tx into its constituent Instruction values,
// resolving each compiled instruction's program id and account subset
// against tx.AccountKeys. An instruction with zero accounts is left as-is
// rather than rejected.
func GetInstructions(tx *types.Tx) ([]*types.Instruction, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrTxWithoutInstructions
	}

	instructions := make([]*types.Instruction, len(tx.Instructions))
	for i, compiled := range tx.Instructions {
		accounts := make([]types.AccountMeta, 0, len(compiled.AccountIndexes))
		for _, idx := range compiled.AccountIndexes {
			if int(idx) < len(tx.AccountKeys) {
				accounts = append(accounts, tx.AccountKeys[idx])
			}
		}

		var programID string
		if int(compiled.ProgramIDIndex) < len(tx.AccountKeys) {
			programID = tx.AccountKeys[compiled.ProgramIDIndex].Pubkey
		}

		instructions[i] = &types.Instruction{
			ID:          uint8(i),
			TxHash:      tx.Hash,
			ProgramID:   programID,
			Blocktime:   tx.Blocktime,
			AccountKeys: accounts,
			Data:        compiled.Data,
		}
	}

	return instructions, nil
}
