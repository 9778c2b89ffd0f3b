package checker

import (
	"context"
	"crypto/tls"
	"net/netip"

	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
)

// Handshaker performs a single TLS handshake.
type Handshaker interface {
	Handshake(ctx context.Context, addr, serverName string, opts network.HandshakeOptions) (*tls.ConnectionState, error)
}

// HTTPDoer issues single HTTP requests without following redirects.
type HTTPDoer interface {
	Head(ctx context.Context, rawURL string, preferHTTP2 bool) (*network.Response, error)
	Get(ctx context.Context, rawURL string) (*network.Response, error)
}

// Resolver returns the first A record of a host.
type Resolver interface {
	LookupA(ctx context.Context, host string) (netip.Addr, error)
}

// ASNLookup returns the name of the AS announcing an address.
type ASNLookup interface {
	Organization(ctx context.Context, ip netip.Addr) (string, error)
}

// IPIntel returns the organization an IP-intelligence service reports.
type IPIntel interface {
	Organization(ctx context.Context, ip netip.Addr) (string, error)
}

// Pinger measures ICMP round trips.
type Pinger interface {
	Ping(ctx context.Context, host string, count int) (network.PingStats, error)
}
