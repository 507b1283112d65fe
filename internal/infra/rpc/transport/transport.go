// Package transport carries RPC calls over the wire to one endpoint
// address. The dispatch layer treats it as an opaque async call: it does
// not interpret payloads beyond surfacing remote errors.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport performs one remote call against the given endpoint address.
type Transport interface {
	// Invoke sends method with params to the node at addr and returns
	// the raw result payload, or the remote error unmodified.
	Invoke(ctx context.Context, addr, method string, params any) (json.RawMessage, error)

	// Close cleans up connections.
	Close() error
}

// RPCError is an error object returned by a node inside a JSON-RPC
// response envelope.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
