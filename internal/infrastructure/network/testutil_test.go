package network

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// newTLSServer starts a loopback HTTPS server and returns it with a pool
// trusting its certificate.
func newTLSServer(t *testing.T, http2 bool, cfg *tls.Config, handler http.HandlerFunc) (*httptest.Server, *x509.CertPool) {
	t.Helper()

	srv := httptest.NewUnstartedServer(handler)
	srv.EnableHTTP2 = http2
	srv.TLS = cfg
	srv.StartTLS()
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return srv, pool
}

func hostPort(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	return u.Host
}
