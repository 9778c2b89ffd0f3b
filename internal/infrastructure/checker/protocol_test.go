package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
)

func headReturning(proto string, major int, err error) *stubHTTP {
	return &stubHTTP{head: func(context.Context, string, bool) (*network.Response, error) {
		if err != nil {
			return nil, err
		}
		return &network.Response{Proto: proto, ProtoMajor: major, StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}}
}

func alpnSelecting(selected map[string]string) *stubHandshaker {
	return &stubHandshaker{fn: func(_ context.Context, _, _ string, opts network.HandshakeOptions) (*tls.ConnectionState, error) {
		if len(opts.ALPN) == 0 {
			return nil, errors.New("unexpected handshake without ALPN")
		}
		proto, ok := selected[opts.ALPN[0]]
		if !ok {
			return nil, errors.New("tls: no application protocol")
		}
		return stateWith(tls.VersionTLS13, proto), nil
	}}
}

func TestHTTPProtocolProbe_HTTP2(t *testing.T) {
	tests := []struct {
		name       string
		http       *stubHTTP
		hs         *stubHandshaker
		wantStatus evaluation.Status
		wantProto  string
	}{
		{
			name:       "head over h2",
			http:       headReturning("HTTP/2.0", 2, nil),
			hs:         alpnSelecting(nil),
			wantStatus: evaluation.StatusSupported,
			wantProto:  "HTTP/2.0",
		},
		{
			name:       "alpn fallback selects h2",
			http:       headReturning("HTTP/1.1", 1, nil),
			hs:         alpnSelecting(map[string]string{"h2": "h2"}),
			wantStatus: evaluation.StatusSupported,
			wantProto:  "h2",
		},
		{
			name:       "alpn selects http/1.1",
			http:       headReturning("HTTP/1.1", 1, nil),
			hs:         alpnSelecting(map[string]string{"h2": "http/1.1"}),
			wantStatus: evaluation.StatusUnsupported,
			wantProto:  "http/1.1",
		},
		{
			name:       "head observed without alpn",
			http:       headReturning("HTTP/1.1", 1, nil),
			hs:         alpnSelecting(map[string]string{"h2": ""}),
			wantStatus: evaluation.StatusUnsupported,
			wantProto:  "HTTP/1.1",
		},
		{
			name:       "everything fails",
			http:       headReturning("", 0, context.DeadlineExceeded),
			hs:         alpnSelecting(nil),
			wantStatus: evaluation.StatusUnsupported,
			wantProto:  "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &HTTPProtocolProbe{HTTP: tt.http, Handshaker: tt.hs}
			out := probe.Check(context.Background(), target)

			if len(out.Findings) != 1 {
				t.Fatalf("expected only the HTTP/2 finding, got %d", len(out.Findings))
			}
			f := out.Findings[0]
			if f.Kind != evaluation.KindHTTP2 || f.Status != tt.wantStatus || f.Protocol != tt.wantProto {
				t.Fatalf("got %s/%s proto %q (%s)", f.Kind, f.Status, f.Protocol, f.Detail)
			}
		})
	}
}

func TestHTTPProtocolProbe_HTTP3(t *testing.T) {
	tests := []struct {
		name       string
		selected   map[string]string
		wantStatus evaluation.Status
	}{
		{name: "h3 selected", selected: map[string]string{"h2": "h2", "h3": "h3"}, wantStatus: evaluation.StatusSupported},
		{name: "h3 not selected", selected: map[string]string{"h2": "h2", "h3": "http/1.1"}, wantStatus: evaluation.StatusUnsupported},
		{name: "handshake rejected", selected: map[string]string{"h2": "h2"}, wantStatus: evaluation.StatusUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &HTTPProtocolProbe{
				HTTP:        headReturning("HTTP/1.1", 1, nil),
				Handshaker:  alpnSelecting(tt.selected),
				EnableHTTP3: true,
			}
			out := probe.Check(context.Background(), target)

			if len(out.Findings) != 2 {
				t.Fatalf("expected two findings, got %d", len(out.Findings))
			}
			if out.Findings[0].Kind != evaluation.KindHTTP2 || out.Findings[1].Kind != evaluation.KindHTTP3 {
				t.Fatalf("unexpected kinds %s, %s", out.Findings[0].Kind, out.Findings[1].Kind)
			}
			if got := out.Findings[1].Status; got != tt.wantStatus {
				t.Fatalf("HTTP/3 status = %s, want %s (%s)", got, tt.wantStatus, out.Findings[1].Detail)
			}
		})
	}
}

func TestHTTPProtocolProbe_SubCheckTimeoutIsNegative(t *testing.T) {
	blocking := &stubHandshaker{fn: func(ctx context.Context, _, _ string, _ network.HandshakeOptions) (*tls.ConnectionState, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	probe := &HTTPProtocolProbe{
		HTTP:        headReturning("HTTP/1.1", 1, nil),
		Handshaker:  blocking,
		EnableHTTP3: true,
		Timeout:     50 * time.Millisecond,
	}

	start := time.Now()
	out := probe.Check(context.Background(), target)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sub-checks did not run concurrently under their timeouts: %v", elapsed)
	}
	for _, f := range out.Findings {
		if f.Status != evaluation.StatusUnsupported {
			t.Fatalf("timeout must be a negative finding, got %+v", f)
		}
	}
}

func TestHTTPProtocolProbe_Loopback(t *testing.T) {
	tgt, pool := loopbackTarget(t, true, nil, func(w http.ResponseWriter, r *http.Request) {})
	probe := &HTTPProtocolProbe{
		HTTP:       &network.HTTPClient{Timeout: 5 * time.Second, RootCAs: pool},
		Handshaker: &network.TLSClient{Timeout: 5 * time.Second, RootCAs: pool},
	}

	f := probe.Check(context.Background(), tgt).Findings[0]
	if f.Status != evaluation.StatusSupported {
		t.Fatalf("expected HTTP/2 support from loopback server, got %+v", f)
	}
}

func TestHTTPProtocolProbe_LoopbackHTTP11Only(t *testing.T) {
	tgt, pool := loopbackTarget(t, false, nil, func(w http.ResponseWriter, r *http.Request) {})
	probe := &HTTPProtocolProbe{
		HTTP:       &network.HTTPClient{Timeout: 5 * time.Second, RootCAs: pool},
		Handshaker: &network.TLSClient{Timeout: 5 * time.Second, RootCAs: pool},
	}

	f := probe.Check(context.Background(), tgt).Findings[0]
	if f.Status != evaluation.StatusUnsupported {
		t.Fatalf("expected HTTP/2 to be unsupported, got %+v", f)
	}
}
