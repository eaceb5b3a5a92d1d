package processor

import "errors"

var (
	// ErrEmptyCallback is returned when an instruction needs dispatching
	// but no Executor has been registered.
	ErrEmptyCallback = errors.New("processor: no callback registered")

	// ErrTxWithoutInstructions is returned for a transaction with no
	// compiled instructions at all.
	ErrTxWithoutInstructions = errors.New("processor: transaction has no instructions")

	// ErrInstructionWithoutAccounts is reserved for an instruction with no
	// accounts at all. GetInstructions does not currently raise it.
	ErrInstructionWithoutAccounts = errors.New("processor: instruction has no accounts")
)
