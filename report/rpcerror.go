package report

import (
	"errors"
	"strconv"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// rpcErrorCode extracts the numeric JSON-RPC error code solana-go attaches
// to a failed call, if err wraps one.
func rpcErrorCode(err error) (string, bool) {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return strconv.FormatInt(rpcErr.Code, 10), true
	}
	return "", false
}
