package checker

import (
	"context"
	"crypto/tls"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
)

type handshakeFunc func(ctx context.Context, addr, serverName string, opts network.HandshakeOptions) (*tls.ConnectionState, error)

type stubHandshaker struct {
	fn    handshakeFunc
	mu    sync.Mutex
	calls []network.HandshakeOptions
}

func (s *stubHandshaker) Handshake(ctx context.Context, addr, serverName string, opts network.HandshakeOptions) (*tls.ConnectionState, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opts)
	s.mu.Unlock()
	return s.fn(ctx, addr, serverName, opts)
}

func (s *stubHandshaker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubHTTP struct {
	head  func(ctx context.Context, url string, preferHTTP2 bool) (*network.Response, error)
	get   func(ctx context.Context, url string) (*network.Response, error)
	heads atomic.Int32
	gets  atomic.Int32
}

func (s *stubHTTP) Head(ctx context.Context, url string, preferHTTP2 bool) (*network.Response, error) {
	s.heads.Add(1)
	return s.head(ctx, url, preferHTTP2)
}

func (s *stubHTTP) Get(ctx context.Context, url string) (*network.Response, error) {
	s.gets.Add(1)
	return s.get(ctx, url)
}

type stubResolver struct {
	addr  netip.Addr
	err   error
	calls atomic.Int32
}

func (s *stubResolver) LookupA(context.Context, string) (netip.Addr, error) {
	s.calls.Add(1)
	return s.addr, s.err
}

type stubOrg struct {
	org   string
	err   error
	calls atomic.Int32
}

func (s *stubOrg) Organization(context.Context, netip.Addr) (string, error) {
	s.calls.Add(1)
	return s.org, s.err
}

type stubPinger struct {
	stats network.PingStats
	err   error
}

func (s stubPinger) Ping(context.Context, string, int) (network.PingStats, error) {
	return s.stats, s.err
}

func stateWith(version uint16, alpn string) *tls.ConnectionState {
	return &tls.ConnectionState{Version: version, NegotiatedProtocol: alpn}
}
