// Package engine glues the fetcher, processor, store, and report together
// into the indexer's single-goroutine run loop: discover signatures,
// fetch and decompose their transactions, dispatch instructions, persist,
// repeat.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/sociallayer-im/solindexer/config"
	"github.com/sociallayer-im/solindexer/executor"
	"github.com/sociallayer-im/solindexer/fetcher"
	"github.com/sociallayer-im/solindexer/processor"
	"github.com/sociallayer-im/solindexer/report"
	"github.com/sociallayer-im/solindexer/store"
)

// Engine drives the indexing loop against a single configured program.
type Engine struct {
	cfg        config.Configuration
	logger     *zap.Logger
	report     *report.Report
	fetching   *fetcher.Manager
	processing *processor.Manager

	// fetchStore, processStore, and cursorStore are three independent
	// handles onto the same database, kept apart so the fetch loop,
	// process loop, and cursor reads never contend over one pooled
	// connection in constrained container runtimes.
	fetchStore   store.Store
	processStore store.Store
	cursorStore  store.Store
}

// New builds an Engine from cfg, opening three independent Store handles
// and an RPC client, and running migrations if cfg.ShouldMigrate().
func New(ctx context.Context, cfg config.Configuration, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fetchStore, err := store.Open(ctx, cfg.DBSettings)
	if err != nil {
		return nil, fmt.Errorf("engine: open fetch store: %w", err)
	}
	processStore, err := store.Open(ctx, cfg.DBSettings)
	if err != nil {
		return nil, fmt.Errorf("engine: open process store: %w", err)
	}
	cursorStore, err := store.Open(ctx, cfg.DBSettings)
	if err != nil {
		return nil, fmt.Errorf("engine: open cursor store: %w", err)
	}

	if cfg.ShouldMigrate() {
		if err := fetchStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("engine: migrate: %w", err)
		}
	}

	programID, err := solana.PublicKeyFromBase58(cfg.IndexerSettings.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("engine: parse program id: %w", err)
	}

	rep := report.NewReport()
	rpcClient := newRPCClient(cfg.IndexerSettings.ConnectionStr, cfg.IndexerSettings.RPCTimeoutDuration())

	settings := config.DefaultFetchingSettings()
	if cfg.FetcherSettings != nil {
		settings = *cfg.FetcherSettings
	}

	return &Engine{
		cfg:          cfg,
		logger:       logger,
		report:       rep,
		fetching:     fetcher.New(rpcClient, programID, settings, rep, fetchStore),
		processing:   processor.New(processStore),
		fetchStore:   fetchStore,
		processStore: processStore,
		cursorStore:  cursorStore,
	}, nil
}

// newRPCClient builds an rpc.Client whose underlying HTTP transport honors
// indexer_settings.rpc_timeout, rather than solana-go's untimed default.
func newRPCClient(connectionStr string, timeout time.Duration) *rpc.Client {
	jsonRPCClient := jsonrpc.NewClientWithOpts(connectionStr, &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	})
	return rpc.NewWithCustomRPCClient(jsonRPCClient)
}

// Report returns the engine's shared liveness/metrics handle.
func (e *Engine) Report() *report.Report { return e.report }

// SetExecutor registers ex as the callback driven by both the fetcher and
// processor.
func (e *Engine) SetExecutor(ex executor.Executor) {
	e.fetching.SetExecutor(ex)
	e.processing.SetExecutor(ex)
}

// ReplaceExecutor swaps in ex and returns whatever callback was
// previously registered with the fetcher.
func (e *Engine) ReplaceExecutor(ex executor.Executor) executor.Executor {
	old := e.fetching.ReplaceExecutor(ex)
	e.processing.ReplaceExecutor(ex)
	return old
}

// Close releases all three store handles.
func (e *Engine) Close() {
	e.fetchStore.Close()
	e.processStore.Close()
	e.cursorStore.Close()
}

// StartIndexing marks the engine available and runs the indexing loop
// until ctx is cancelled or a fatal error occurs, marking the engine
// unavailable again before returning.
func (e *Engine) StartIndexing(ctx context.Context) error {
	e.report.SetAvailable()
	err := e.run(ctx)
	e.report.SetUnavailable()
	if err != nil {
		e.logger.Error("indexing loop stopped", zap.Error(err))
	}
	return err
}

func (e *Engine) run(ctx context.Context) error {
	until, err := e.cursorStore.MostRecentTx(ctx)
	if err != nil {
		return fmt.Errorf("engine: load cursor: %w", err)
	}

	interval := time.Duration(e.cfg.IndexerSettings.TimestampInterval) * time.Second

	for {
		iterationStart := time.Now()

		if err := e.indexingIteration(ctx, until); err != nil {
			return err
		}

		if err := e.wait(ctx, iterationStart, interval); err != nil {
			return err
		}

		refreshed, err := e.cursorStore.MostRecentTx(ctx)
		if err != nil {
			return fmt.Errorf("engine: refresh cursor: %w", err)
		}
		until = refreshed
	}
}

// indexingIteration pages backward through signatures newer than until
// until a page comes back empty, fetching and processing each page's
// batch as it goes.
func (e *Engine) indexingIteration(ctx context.Context, until string) error {
	before := ""
	for {
		signatures, err := e.fetching.GetSignatures(ctx, before, until)
		if err != nil {
			return fmt.Errorf("engine: get signatures: %w", err)
		}
		if len(signatures) == 0 {
			return nil
		}
		before = signatures[len(signatures)-1]

		if err := e.processBatch(ctx, signatures); err != nil {
			return err
		}
	}
}

func (e *Engine) processBatch(ctx context.Context, signatures []string) error {
	batch, err := e.fetching.FetchBatch(ctx, signatures)
	if err != nil {
		return fmt.Errorf("engine: fetch batch: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}
	if err := e.processing.ProcessBatch(ctx, batch); err != nil {
		return fmt.Errorf("engine: process batch: %w", err)
	}
	return nil
}

// wait sleeps the remainder of the configured interval not already spent
// on the iteration that just ran.
func (e *Engine) wait(ctx context.Context, iterationStart time.Time, interval time.Duration) error {
	elapsed := time.Since(iterationStart)
	remaining := interval - elapsed
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
