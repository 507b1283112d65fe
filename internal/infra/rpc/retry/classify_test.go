package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vietddude/solgate/internal/infra/rpc/transport"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rpc parse error", &transport.RPCError{Code: -32700, Message: "parse error"}, false},
		{"rpc invalid request", &transport.RPCError{Code: -32600, Message: "invalid request"}, false},
		{"rpc method not found", &transport.RPCError{Code: -32601, Message: "method not found"}, false},
		{"rpc invalid params", &transport.RPCError{Code: -32602, Message: "invalid params"}, false},
		{"rpc node error", &transport.RPCError{Code: -32005, Message: "node is behind"}, true},
		{"wrapped rpc error", fmt.Errorf("call failed: %w", &transport.RPCError{Code: -32601, Message: "method not found"}), false},
		{"net timeout", timeoutErr{}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"unauthorized", errors.New("http 401: unauthorized"), false},
		{"forbidden", errors.New("blocked (403)"), false},
		{"rate limited", errors.New("rate limited (429), retry after: 2s"), true},
		{"quota", errors.New("monthly quota exceeded"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"bad gateway", errors.New("http 502: bad gateway"), true},
		{"unrecognized", errors.New("something odd happened"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err); got != tt.want {
				t.Fatalf("Transient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
