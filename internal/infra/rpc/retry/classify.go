package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/vietddude/solgate/internal/infra/rpc/transport"
)

// Transient reports whether err looks worth retrying: network timeouts,
// connection resets, rate limits, and server-side errors. JSON-RPC
// request errors (parse, invalid request, method not found, invalid
// params) and auth failures are terminal.
//
// Opt-in via WithPredicate; the default policy retries everything.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var rpcErr *transport.RPCError
	if errors.As(err, &rpcErr) {
		// -32700 parse, -32600..-32602 request-shaped errors
		switch rpcErr.Code {
		case -32700, -32600, -32601, -32602:
			return false
		}
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	s := strings.ToLower(err.Error())

	for _, pattern := range []string{
		"401", "unauthorized",
		"403", "forbidden",
		"invalid request",
		"method not found",
	} {
		if strings.Contains(s, pattern) {
			return false
		}
	}

	for _, pattern := range []string{
		"429", "too many requests", "rate limit", "quota",
		"timeout", "timed out",
		"connection refused", "connection reset", "broken pipe",
		"no such host", "unreachable",
		"500", "502", "503", "504",
	} {
		if strings.Contains(s, pattern) {
			return true
		}
	}

	// Unrecognized errors default to retryable.
	return true
}
