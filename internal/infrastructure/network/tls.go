package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"time"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
)

// HandshakeOptions controls a single TLS handshake.
type HandshakeOptions struct {
	MinVersion uint16
	MaxVersion uint16
	ALPN       []string
	// Inspect skips chain verification; used when only certificate text matters.
	Inspect bool
}

// TLSClient performs one-shot handshakes and reports the negotiated state.
type TLSClient struct {
	Timeout            time.Duration
	RootCAs            *x509.CertPool
	InsecureSkipVerify bool
}

// Handshake dials addr, completes a TLS handshake and closes the connection.
func (c *TLSClient) Handshake(ctx context.Context, addr, serverName string, opts HandshakeOptions) (*tls.ConnectionState, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.TLSHandshakeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg := &tls.Config{
		ServerName:         serverName,
		RootCAs:            c.RootCAs,
		MinVersion:         opts.MinVersion,
		MaxVersion:         opts.MaxVersion,
		NextProtos:         opts.ALPN,
		InsecureSkipVerify: c.InsecureSkipVerify || opts.Inspect, // #nosec G402 -- inspection only
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS10
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    cfg,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tls handshake with %s: %w", addr, err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return nil, fmt.Errorf("tls handshake with %s: unexpected connection type %T", addr, conn)
	}
	state := tlsConn.ConnectionState()
	return &state, nil
}

// VersionName renders a TLS version the way operators read it.
func VersionName(version uint16) string {
	switch version {
	case tls.VersionTLS13:
		return "TLS 1.3"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS10:
		return "TLS 1.0"
	case 0x0300:
		return "SSL 3.0"
	default:
		return fmt.Sprintf("unknown (0x%04x)", version)
	}
}
