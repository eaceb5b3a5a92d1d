// Package fetcher discovers signatures for a configured program, fetches
// their transactions, and decomposes them into types.Tx values ready for
// the processor and store.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"

	"github.com/sociallayer-im/solindexer/backoff"
	"github.com/sociallayer-im/solindexer/config"
	"github.com/sociallayer-im/solindexer/executor"
	"github.com/sociallayer-im/solindexer/report"
	"github.com/sociallayer-im/solindexer/store"
	"github.com/sociallayer-im/solindexer/types"
)

// Manager discovers and fetches transactions for a single program id.
type Manager struct {
	rpcClient *rpc.Client
	programID solana.PublicKey
	settings  config.FetchingSettings
	report    *report.Report
	store     store.Store
	executor  *executor.Guarded
}

// New builds a Manager. The returned Manager has no registered callback;
// call SetExecutor before fetching if a callback is required.
func New(rpcClient *rpc.Client, programID solana.PublicKey, settings config.FetchingSettings, rep *report.Report, st store.Store) *Manager {
	return &Manager{
		rpcClient: rpcClient,
		programID: programID,
		settings:  settings,
		report:    rep,
		store:     st,
		executor:  executor.NewGuarded(nil),
	}
}

// SetExecutor registers ex as the callback driven during fetching.
func (m *Manager) SetExecutor(ex executor.Executor) { m.executor.Set(ex) }

// ReplaceExecutor swaps in ex and returns whatever callback was previously
// registered.
func (m *Manager) ReplaceExecutor(ex executor.Executor) executor.Executor {
	old := m.executor.Get()
	m.executor.Set(ex)
	return old
}

// GetSignatures fetches one page of confirmed signatures for the
// configured program, older than before and no older than until. Either
// bound may be the empty string to leave it unset.
func (m *Manager) GetSignatures(ctx context.Context, before, until string) ([]string, error) {
	var beforeSig, untilSig solana.Signature
	var err error
	if before != "" {
		if beforeSig, err = solana.SignatureFromBase58(before); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseSignature, err)
		}
	}
	if until != "" {
		if untilSig, err = solana.SignatureFromBase58(until); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseSignature, err)
		}
	}

	var attempt uint64
	for {
		sigs, pageErr := m.getSignaturesPage(ctx, beforeSig, untilSig)
		if pageErr == nil {
			return sigs, nil
		}
		if delayErr := backoff.Delay(ctx, attempt, m.settings.RetryLimit, m.settings.RPCRequestTimeoutMs); delayErr != nil {
			return nil, fmt.Errorf("fetcher: get signatures: %w", delayErr)
		}
		attempt++
	}
}

func (m *Manager) getSignaturesPage(ctx context.Context, before, until solana.Signature) ([]string, error) {
	limit := int(m.settings.TransactionBatchSize)
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	}
	var zero solana.Signature
	if before != zero {
		opts.Before = before
	}
	if until != zero {
		opts.Until = until
	}

	result, err := m.rpcClient.GetSignaturesForAddressWithOpts(ctx, m.programID, opts)
	m.report.IncMetrics(err)
	if err != nil {
		return nil, fmt.Errorf("fetcher: get signatures page: %w", err)
	}

	sigs := make([]string, 0, len(result))
	for _, entry := range result {
		sigs = append(sigs, entry.Signature.String())
	}
	return sigs, nil
}

// FetchBatch fetches and decomposes every signature in signatures not
// already recorded as indexed, honoring ProcessSignature's control flow
// for each one.
func (m *Manager) FetchBatch(ctx context.Context, signatures []string) ([]*types.Tx, error) {
	var batch []*types.Tx

	for _, sig := range signatures {
		flow, err := m.executor.ProcessSignature(ctx, sig)
		if err != nil {
			return nil, fmt.Errorf("fetcher: process_signature callback: %w", err)
		}
		if flow == executor.Skip {
			continue
		}
		if flow == executor.Stop {
			return batch, nil
		}

		recorded, err := m.store.RecordedTx(ctx, sig)
		if err != nil {
			return nil, fmt.Errorf("fetcher: recorded tx check: %w", err)
		}
		if recorded {
			continue
		}

		tx, err := m.fetchTx(ctx, sig)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			batch = append(batch, tx)
		}
	}

	return batch, nil
}

func (m *Manager) fetchTx(ctx context.Context, signature string) (*types.Tx, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseSignature, err)
	}

	var result *rpc.GetTransactionResult
	var attempt uint64
	for {
		result, err = m.getTransaction(ctx, sig)
		if err == nil {
			break
		}
		if delayErr := backoff.Delay(ctx, attempt, m.settings.RetryLimit, m.settings.RPCRequestTimeoutMs); delayErr != nil {
			return nil, fmt.Errorf("fetcher: fetch transaction %s: %w", signature, delayErr)
		}
		attempt++
	}

	rawFlow, err := m.executor.ProcessRawTransaction(ctx, signature, result)
	if err != nil {
		return nil, fmt.Errorf("fetcher: process_raw_transaction callback: %w", err)
	}
	switch rawFlow.Flow {
	case executor.Skip:
		return nil, nil
	case executor.Stop:
		if rawFlow.Data == nil {
			return nil, fmt.Errorf("fetcher: process_raw_transaction %s: %w", signature, ErrHookStopWithoutSubstitute)
		}
		return rawFlow.Data, nil
	}

	var logs []string
	if result.Meta != nil {
		logs = result.Meta.LogMessages
	}
	logFlow, err := m.executor.ProcessLogMessages(ctx, signature, logs)
	if err != nil {
		return nil, fmt.Errorf("fetcher: process_log_messages callback: %w", err)
	}
	switch logFlow.Flow {
	case executor.Skip:
		return nil, nil
	case executor.Stop:
		if logFlow.Data == nil {
			return nil, fmt.Errorf("fetcher: process_log_messages %s: %w", signature, ErrHookStopWithoutSubstitute)
		}
		return logFlow.Data, nil
	}

	tx, err := m.createTx(signature, result)
	if err != nil {
		return nil, err
	}

	txFlow, err := m.executor.ProcessParsedTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("fetcher: process_parsed_transaction callback: %w", err)
	}
	switch txFlow.Flow {
	case executor.Skip:
		return nil, nil
	case executor.Stop:
		if txFlow.Data == nil {
			return nil, fmt.Errorf("fetcher: process_parsed_transaction %s: %w", signature, ErrHookStopWithoutSubstitute)
		}
		tx = txFlow.Data
	}

	if err := m.store.InsertTx(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (m *Manager) getTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	result, err := m.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	m.report.IncMetrics(err)
	if err != nil {
		return nil, fmt.Errorf("fetcher: rpc get_transaction: %w", err)
	}
	return result, nil
}

// createTx validates the fetched transaction and decomposes it into a
// types.Tx, deriving each account's writable/signer flags from the
// message header.
func (m *Manager) createTx(signature string, result *rpc.GetTransactionResult) (*types.Tx, error) {
	decoded, err := decodeTransaction(result)
	if err != nil {
		return nil, err
	}
	var blockTime *int64
	if result.BlockTime != nil {
		bt := int64(*result.BlockTime)
		blockTime = &bt
	}
	return buildTx(signature, decoded, blockTime)
}

// decodeTransaction pulls the binary-encoded *solana.Transaction out of an
// RPC envelope. result.Transaction is nil when the node returns no
// transaction payload at all; a non-nil envelope that fails to decode, or
// decodes to nil, means the payload wasn't the transaction shape we asked
// for.
func decodeTransaction(result *rpc.GetTransactionResult) (*solana.Transaction, error) {
	if result.Transaction == nil {
		return nil, ErrWrongEncoding
	}
	decoded, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongEncoding, err)
	}
	if decoded == nil {
		return nil, ErrWrongMsgType
	}
	return decoded, nil
}

// buildTx validates decoded against the decomposition invariants and turns
// it into a types.Tx, deriving each account's writable/signer flags from
// the message header. blockTime is the transaction's Unix blocktime in
// seconds, or nil if the node didn't report one.
func buildTx(signature string, decoded *solana.Transaction, blockTime *int64) (*types.Tx, error) {
	msg := decoded.Message
	if len(msg.AccountKeys) == 0 {
		return nil, ErrTxWithoutAccounts
	}
	if len(decoded.Signatures) == 0 {
		return nil, ErrTxWithoutSignatures
	}
	if blockTime == nil {
		return nil, ErrTxWithoutBlocktime
	}

	accountKeys := make([]types.AccountMeta, len(msg.AccountKeys))
	for i, key := range msg.AccountKeys {
		accountKeys[i] = types.AccountMeta{
			Pubkey:   key.String(),
			Writable: isAccWritable(i, msg.Header, msg.AccountKeys, msg.Instructions),
			Signer:   isAccSigner(i, msg.Header),
		}
	}

	instructions := make([]types.CompiledInstruction, len(msg.Instructions))
	for i, ix := range msg.Instructions {
		indexes := make([]uint16, len(ix.Accounts))
		copy(indexes, ix.Accounts)
		instructions[i] = types.CompiledInstruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			AccountIndexes: indexes,
			Data:           base58.Encode(ix.Data),
		}
	}

	return &types.Tx{
		Hash:              signature,
		Blocktime:         int64(*blockTime),
		Instructions:      instructions,
		AccountKeys:       accountKeys,
		IndexingStatus:    types.StatusPending,
		IndexingTimestamp: time.Now().Unix(),
	}, nil
}

