package fetcher

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/sociallayer-im/solindexer/config"
	"github.com/sociallayer-im/solindexer/executor"
	"github.com/sociallayer-im/solindexer/report"
	"github.com/sociallayer-im/solindexer/types"
)

var noProgramID solana.PublicKey

type fakeStore struct {
	recorded map[string]bool
}

func newFakeStore() *fakeStore { return &fakeStore{recorded: map[string]bool{}} }

func (f *fakeStore) InsertTx(context.Context, *types.Tx) error                      { return nil }
func (f *fakeStore) UpdateTx(context.Context, string, types.IndexingStatus) error   { return nil }
func (f *fakeStore) InsertInstruction(context.Context, *types.Instruction) error    { return nil }
func (f *fakeStore) MostRecentTx(context.Context) (string, error)                   { return "", nil }
func (f *fakeStore) RecordedTx(_ context.Context, hash string) (bool, error) {
	return f.recorded[hash], nil
}
func (f *fakeStore) RecordedInstruction(context.Context, string, uint8) (bool, error) {
	return false, nil
}
func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close()                        {}

type controlledExecutor struct {
	executor.NoopExecutor
	signatureFlow executor.ControlFlow
	seen          []string
}

func (c *controlledExecutor) ProcessSignature(_ context.Context, signature string) (executor.ControlFlow, error) {
	c.seen = append(c.seen, signature)
	return c.signatureFlow, nil
}

func testSettings() config.FetchingSettings {
	return config.FetchingSettings{RPCRequestTimeoutMs: 1, RetryLimit: 3, TransactionBatchSize: 10}
}

func TestFetchBatchSkipsAlreadyRecordedSignatures(t *testing.T) {
	st := newFakeStore()
	st.recorded["abc"] = true

	mgr := New(nil, noProgramID, testSettings(), report.NewReport(), st)

	batch, err := mgr.FetchBatch(context.Background(), []string{"abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("expected no fetched transactions, got %d", len(batch))
	}
}

func TestFetchBatchHonorsSkipControlFlow(t *testing.T) {
	st := newFakeStore()
	ex := &controlledExecutor{signatureFlow: executor.Skip}
	mgr := New(nil, noProgramID, testSettings(), report.NewReport(), st)
	mgr.SetExecutor(ex)

	batch, err := mgr.FetchBatch(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("expected no fetched transactions, got %d", len(batch))
	}
	if len(ex.seen) != 2 {
		t.Errorf("expected both signatures to be offered to the callback, got %v", ex.seen)
	}
}

func TestFetchBatchHonorsStopControlFlow(t *testing.T) {
	st := newFakeStore()
	ex := &controlledExecutor{signatureFlow: executor.Stop}
	mgr := New(nil, noProgramID, testSettings(), report.NewReport(), st)
	mgr.SetExecutor(ex)

	batch, err := mgr.FetchBatch(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("expected no fetched transactions, got %d", len(batch))
	}
	if len(ex.seen) != 1 {
		t.Errorf("expected only the first signature to reach the callback before Stop, got %v", ex.seen)
	}
}
