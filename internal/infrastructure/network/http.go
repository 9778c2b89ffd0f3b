package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	"golang.org/x/net/http2"
)

// Response is the part of an HTTP response the probes look at.
type Response struct {
	Proto      string
	ProtoMajor int
	StatusCode int
	Header     http.Header
	Location   string
	TLS        *tls.ConnectionState
}

// HTTPClient issues single requests that never follow redirects.
type HTTPClient struct {
	Timeout            time.Duration
	RootCAs            *x509.CertPool
	InsecureSkipVerify bool
	UserAgent          string
}

// Head issues a header-only request. With preferHTTP2 the transport offers
// h2 through ALPN and speaks HTTP/2 when the server selects it.
func (c *HTTPClient) Head(ctx context.Context, rawURL string, preferHTTP2 bool) (*Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, preferHTTP2)
}

// Get issues a GET request without following redirects.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, false)
}

func (c *HTTPClient) do(ctx context.Context, method, rawURL string, preferHTTP2 bool) (*Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.HTTPTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: timeout}).DialContext,
		TLSHandshakeTimeout: timeout,
		DisableKeepAlives:   true,
		TLSClientConfig: &tls.Config{
			RootCAs:            c.RootCAs,
			InsecureSkipVerify: c.InsecureSkipVerify, // #nosec G402 -- operator opt-in
			NextProtos:         []string{"http/1.1"},
		},
	}
	if preferHTTP2 {
		transport.TLSClientConfig.NextProtos = nil
		if _, err := http2.ConfigureTransports(transport); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// Body content is irrelevant; drain a bounded amount.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, consts.ResponseSnippetLimit))

	return &Response{
		Proto:      resp.Proto,
		ProtoMajor: resp.ProtoMajor,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Location:   resp.Header.Get("Location"),
		TLS:        resp.TLS,
	}, nil
}
