// Package executor defines the callback contract the indexer drives as it
// discovers signatures, fetches raw transactions, and extracts
// instructions. Callers implement Executor (or embed NoopExecutor and
// override only the hooks they care about) and register it with the
// engine through Guarded, which serializes every invocation behind a
// single mutex so the embedding program never sees two hooks run at once.
package executor

import (
	"context"
	"sync"

	"github.com/sociallayer-im/solindexer/types"
)

// ControlFlow is the three-valued decision a callback hook returns: Skip
// drops the current item without storing it, Pass continues the default
// pipeline behavior, and Stop aborts the current fetch/process step,
// optionally substituting its own data.
type ControlFlow int

const (
	Pass ControlFlow = iota
	Skip
	Stop
)

// Decision carries a ControlFlow plus an optional substitute value of type
// T, used by hooks that can redirect the pipeline onto caller-supplied
// data (e.g. a callback that already has its own copy of a transaction).
type Decision[T any] struct {
	Flow ControlFlow
	Data T
}

// Executor is the full callback surface. Every hook defaults to Pass when
// embedding NoopExecutor, so implementations only need to override the
// hooks relevant to them.
type Executor interface {
	// ProcessSignature is invoked for each signature discovered before its
	// transaction is fetched. Skip drops the signature; Stop aborts the
	// batch.
	ProcessSignature(ctx context.Context, signature string) (ControlFlow, error)

	// ProcessRawTransaction is invoked with the raw fetched transaction
	// before decomposition. Stop may supply a substitute *types.Tx.
	ProcessRawTransaction(ctx context.Context, signature string, raw any) (Decision[*types.Tx], error)

	// ProcessLogMessages is invoked with a transaction's log messages, if
	// any, before decomposition completes.
	ProcessLogMessages(ctx context.Context, signature string, logs []string) (Decision[*types.Tx], error)

	// ProcessParsedTransaction is invoked with the fully decomposed Tx
	// immediately before it is persisted. Stop may supply a substitute
	// *types.Tx, same as ProcessRawTransaction and ProcessLogMessages.
	ProcessParsedTransaction(ctx context.Context, tx *types.Tx) (Decision[*types.Tx], error)

	// ProcessInstruction is invoked once per extracted instruction. Skip
	// drops the instruction from storage; Stop aborts processing the rest
	// of the transaction's instructions.
	ProcessInstruction(ctx context.Context, instr *types.Instruction) (ControlFlow, error)
}

// NoopExecutor implements Executor with every hook defaulting to Pass.
// Embed it and override only the hooks you need.
type NoopExecutor struct{}

func (NoopExecutor) ProcessSignature(context.Context, string) (ControlFlow, error) {
	return Pass, nil
}

func (NoopExecutor) ProcessRawTransaction(context.Context, string, any) (Decision[*types.Tx], error) {
	return Decision[*types.Tx]{Flow: Pass}, nil
}

func (NoopExecutor) ProcessLogMessages(context.Context, string, []string) (Decision[*types.Tx], error) {
	return Decision[*types.Tx]{Flow: Pass}, nil
}

func (NoopExecutor) ProcessParsedTransaction(context.Context, *types.Tx) (Decision[*types.Tx], error) {
	return Decision[*types.Tx]{Flow: Pass}, nil
}

func (NoopExecutor) ProcessInstruction(context.Context, *types.Instruction) (ControlFlow, error) {
	return Pass, nil
}

// Guarded wraps an Executor behind a mutex so concurrent callers never
// re-enter a callback at the same time through it. The fetcher and the
// processor each wrap the registered Executor in a Guarded of their own;
// calls made through two different Guarded values are not serialized
// against each other.
type Guarded struct {
	mu sync.Mutex
	ex Executor
}

// NewGuarded wraps ex. A nil ex is valid; callers must check Set() before
// invoking hooks that require a callback (see processor.ErrEmptyCallback).
func NewGuarded(ex Executor) *Guarded {
	return &Guarded{ex: ex}
}

// Set swaps in a new Executor, replacing whatever was registered before.
func (g *Guarded) Set(ex Executor) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ex = ex
}

// Get returns the currently registered Executor, or nil if none is set.
func (g *Guarded) Get() Executor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ex
}

// HasExecutor reports whether a callback is currently registered. The
// processor requires this before dispatching ProcessInstruction, since
// unlike the fetcher's hooks an instruction with nowhere to go is an error
// rather than a silent Pass.
func (g *Guarded) HasExecutor() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ex != nil
}

func (g *Guarded) ProcessSignature(ctx context.Context, signature string) (ControlFlow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ex == nil {
		return Pass, nil
	}
	return g.ex.ProcessSignature(ctx, signature)
}

func (g *Guarded) ProcessRawTransaction(ctx context.Context, signature string, raw any) (Decision[*types.Tx], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ex == nil {
		return Decision[*types.Tx]{Flow: Pass}, nil
	}
	return g.ex.ProcessRawTransaction(ctx, signature, raw)
}

func (g *Guarded) ProcessLogMessages(ctx context.Context, signature string, logs []string) (Decision[*types.Tx], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ex == nil {
		return Decision[*types.Tx]{Flow: Pass}, nil
	}
	return g.ex.ProcessLogMessages(ctx, signature, logs)
}

func (g *Guarded) ProcessParsedTransaction(ctx context.Context, tx *types.Tx) (Decision[*types.Tx], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ex == nil {
		return Decision[*types.Tx]{Flow: Pass}, nil
	}
	return g.ex.ProcessParsedTransaction(ctx, tx)
}

func (g *Guarded) ProcessInstruction(ctx context.Context, instr *types.Instruction) (ControlFlow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ex == nil {
		return Pass, nil
	}
	return g.ex.ProcessInstruction(ctx, instr)
}
