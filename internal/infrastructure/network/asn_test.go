package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const cymruVerbose = `AS      | IP               | BGP Prefix          | CC | Registry | Allocated  | AS Name
13335   | 1.1.1.1          | 1.1.1.0/24          | US | arin     | 2010-07-14 | CLOUDFLARENET, US
`

func TestParseWhoisOrganization(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "verbose", body: cymruVerbose, want: "CLOUDFLARENET, US"},
		{name: "bulk banner", body: "Bulk mode; whois.cymru.com [2024-01-01 00:00:00 +0000]\n" + cymruVerbose, want: "CLOUDFLARENET, US"},
		{name: "header only", body: "AS      | IP      | AS Name\n", wantErr: true},
		{name: "empty", body: "", wantErr: true},
		{name: "unannounced", body: "NA      | 10.0.0.1         | NA                  |    | other    |            | NA\n", wantErr: true},
		{name: "no columns", body: "error: something\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWhoisOrganization(tt.body)
			if tt.wantErr {
				if !errors.Is(err, sharedErrors.ErrNoOrganization) {
					t.Fatalf("expected ErrNoOrganization, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWhoisASN_Organization(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	queries := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		queries <- line
		_, _ = conn.Write([]byte(cymruVerbose))
	}()

	w := &WhoisASN{Server: ln.Addr().String(), Timeout: 2 * time.Second}
	org, err := w.Organization(context.Background(), netip.MustParseAddr("1.1.1.1"))
	if err != nil {
		t.Fatalf("Organization() error = %v", err)
	}
	if org != "CLOUDFLARENET, US" {
		t.Fatalf("Organization() = %q", org)
	}
	if q := <-queries; q != " -v 1.1.1.1\r\n" {
		t.Fatalf("unexpected query %q", q)
	}
}

type fakeTXT map[string][]string

func (f fakeTXT) LookupTXT(_ context.Context, name string) ([]string, error) {
	if txt, ok := f[name]; ok {
		return txt, nil
	}
	return nil, fmt.Errorf("no TXT record for %s", name)
}

func TestDNSASN_Organization(t *testing.T) {
	d := &DNSASN{Resolver: fakeTXT{
		"1.1.1.1.origin.asn.cymru.com": {"13335 | 1.1.1.0/24 | US | arin | 2010-07-14"},
		"AS13335.asn.cymru.com":        {"13335 | US | arin | 2010-07-14 | CLOUDFLARENET, US"},
	}}

	org, err := d.Organization(context.Background(), netip.MustParseAddr("1.1.1.1"))
	if err != nil {
		t.Fatalf("Organization() error = %v", err)
	}
	if org != "CLOUDFLARENET, US" {
		t.Fatalf("Organization() = %q", org)
	}

	if _, err := d.Organization(context.Background(), netip.MustParseAddr("192.0.2.1")); err == nil {
		t.Fatal("expected lookup failure for unknown prefix")
	}
}

func TestOriginName(t *testing.T) {
	if got := originName(netip.MustParseAddr("203.0.113.9")); got != "9.113.0.203.origin.asn.cymru.com" {
		t.Fatalf("v4 origin name = %s", got)
	}
	if got := originName(netip.MustParseAddr("::ffff:203.0.113.9")); got != "9.113.0.203.origin.asn.cymru.com" {
		t.Fatalf("mapped origin name = %s", got)
	}

	got := originName(netip.MustParseAddr("2001:db8::1"))
	if !strings.HasPrefix(got, "1.0.0.0.0.0.0.0.") || !strings.HasSuffix(got, "8.b.d.0.1.0.0.2.origin6.asn.cymru.com") {
		t.Fatalf("v6 origin name = %s", got)
	}
}

func TestIPInfoClient_Organization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/104.16.1.1/json":
			_, _ = w.Write([]byte(`{"ip":"104.16.1.1","org":"AS13335 Cloudflare, Inc."}`))
		case "/10.0.0.1/json":
			_, _ = w.Write([]byte(`{"ip":"10.0.0.1","bogon":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := NewIPInfoClient(srv.URL+"/%s/json", "secret", 0, time.Second)

	org, err := client.Organization(context.Background(), netip.MustParseAddr("104.16.1.1"))
	if err != nil {
		t.Fatalf("Organization() error = %v", err)
	}
	if org != "AS13335 Cloudflare, Inc." {
		t.Fatalf("Organization() = %q", org)
	}

	if _, err := client.Organization(context.Background(), netip.MustParseAddr("10.0.0.1")); !errors.Is(err, sharedErrors.ErrNoOrganization) {
		t.Fatalf("expected ErrNoOrganization, got %v", err)
	}
	if _, err := client.Organization(context.Background(), netip.MustParseAddr("192.0.2.1")); err == nil {
		t.Fatal("expected HTTP error")
	}
}

func TestIPInfoClient_RateLimitHonoursContext(t *testing.T) {
	client := NewIPInfoClient("http://127.0.0.1:1/%s", "", 0.001, time.Second)
	// Consume the single burst token.
	client.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Organization(ctx, netip.MustParseAddr("192.0.2.1")); err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}
