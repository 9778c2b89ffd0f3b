package network

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const resolvConfPath = "/etc/resolv.conf"

// Resolver queries nameservers directly with miekg/dns.
type Resolver struct {
	Nameservers []string
	Timeout     time.Duration
	client      *dns.Client
}

// NewResolver uses the given nameservers, falling back to resolv.conf and
// then to a public resolver. Nameservers without a port get :53.
func NewResolver(nameservers []string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = consts.DNSTimeout
	}

	servers := make([]string, 0, len(nameservers))
	for _, ns := range nameservers {
		if ns = strings.TrimSpace(ns); ns != "" {
			servers = append(servers, withDefaultPort(ns, "53"))
		}
	}
	if len(servers) == 0 {
		if cfg, err := dns.ClientConfigFromFile(resolvConfPath); err == nil {
			for _, s := range cfg.Servers {
				servers = append(servers, net.JoinHostPort(s, cfg.Port))
			}
		}
	}
	if len(servers) == 0 {
		servers = []string{consts.DefaultFallbackNameserver}
	}

	return &Resolver{
		Nameservers: servers,
		Timeout:     timeout,
		client:      &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// LookupA returns the first A record for host. IPv4 literals are returned as is.
func (r *Resolver) LookupA(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}

	answers, err := r.query(ctx, host, dns.TypeA)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, rr := range answers {
		if a, ok := rr.(*dns.A); ok {
			if addr, ok := netip.AddrFromSlice(a.A.To4()); ok {
				return addr, nil
			}
		}
	}
	return netip.Addr{}, fmt.Errorf("%w for %s", sharedErrors.ErrNoARecord, host)
}

// LookupTXT returns every TXT string for name.
func (r *Resolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	answers, err := r.query(ctx, name, dns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rr := range answers {
		if txt, ok := rr.(*dns.TXT); ok {
			out = append(out, strings.Join(txt.Txt, ""))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no TXT record for %s", name)
	}
	return out, nil
}

func (r *Resolver) query(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	client := r.client
	if client == nil {
		client = &dns.Client{Net: "udp", Timeout: r.Timeout}
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.Nameservers {
		in, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s via %s: %w", name, server, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if in.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("query %s via %s: %s", name, server, dns.RcodeToString[in.Rcode])
			continue
		}
		return in.Answer, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("query %s: no nameservers configured", name)
	}
	return nil, lastErr
}

func withDefaultPort(hostport, port string) string {
	if _, _, err := net.SplitHostPort(hostport); err == nil {
		return hostport
	}
	return net.JoinHostPort(strings.Trim(hostport, "[]"), port)
}
