package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ConnHandler executes a generated-client call against a live gRPC
// connection and returns its result serialized as JSON.
type ConnHandler func(ctx context.Context, conn grpc.ClientConnInterface) (json.RawMessage, error)

// GRPCTransport implements Transport for Geyser-style gRPC nodes. gRPC
// has no generic call shape, so params must be a ConnHandler wrapping
// the generated client; the transport injects a pooled connection for
// the selected endpoint address.
type GRPCTransport struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

// NewGRPCTransport creates a gRPC transport. Connections are dialed
// lazily per endpoint address and reused.
func NewGRPCTransport() *GRPCTransport {
	return &GRPCTransport{conns: make(map[string]*grpc.ClientConn)}
}

// Invoke runs the ConnHandler in params against a connection to addr.
func (t *GRPCTransport) Invoke(ctx context.Context, addr, method string, params any) (json.RawMessage, error) {
	handler, ok := params.(ConnHandler)
	if !ok {
		return nil, fmt.Errorf("grpc call %s: params must be a transport.ConnHandler", method)
	}

	conn, err := t.conn(addr)
	if err != nil {
		return nil, err
	}
	return handler(ctx, conn)
}

func (t *GRPCTransport) conn(addr string) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[addr]; ok {
		return conn, nil
	}

	target := addr
	var opts []grpc.DialOption
	if strings.HasPrefix(addr, "https://") || strings.HasSuffix(addr, ":443") {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial grpc endpoint %s: %w", target, err)
	}
	t.conns[addr] = conn
	return conn, nil
}

// Close closes every pooled connection.
func (t *GRPCTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for addr, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.conns, addr)
	}
	return firstErr
}
