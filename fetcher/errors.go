package fetcher

import "errors"

var (
	ErrWrongEncoding       = errors.New("fetcher: unexpected transaction encoding")
	ErrWrongMsgType        = errors.New("fetcher: unexpected transaction message type")
	ErrTxWithoutAccounts   = errors.New("fetcher: transaction has no account keys")
	ErrTxWithoutSignatures = errors.New("fetcher: transaction has no signatures")
	ErrTxWithoutBlocktime  = errors.New("fetcher: transaction has no blocktime")
	ErrParseSignature      = errors.New("fetcher: could not parse signature")

	// ErrHookStopWithoutSubstitute is returned when a callback hook
	// returns Stop without supplying a substitute transaction: there is
	// nothing left to fetch with and nothing to fall back to, so the
	// iteration aborts rather than silently dropping the transaction.
	ErrHookStopWithoutSubstitute = errors.New("fetcher: hook returned stop without a substitute transaction")
)
