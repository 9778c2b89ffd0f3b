package network

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const (
	originZone  = "origin.asn.cymru.com"
	origin6Zone = "origin6.asn.cymru.com"
	asnZone     = "asn.cymru.com"
)

// TXTResolver is satisfied by *Resolver.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSASN answers the same question as WhoisASN over DNS TXT records, which
// works where outbound port 43 is filtered.
type DNSASN struct {
	Resolver TXTResolver
}

// Organization resolves the origin AS of ip, then that AS's registered name.
func (d *DNSASN) Organization(ctx context.Context, ip netip.Addr) (string, error) {
	origin, err := d.Resolver.LookupTXT(ctx, originName(ip))
	if err != nil {
		return "", fmt.Errorf("origin lookup: %w", err)
	}
	// "13335 | 1.1.1.0/24 | US | arin | 2010-07-14"; multi-origin prefixes list
	// several ASNs separated by spaces.
	asn := strings.Fields(strings.Split(origin[0], "|")[0])
	if len(asn) == 0 {
		return "", sharedErrors.ErrNoOrganization
	}

	desc, err := d.Resolver.LookupTXT(ctx, fmt.Sprintf("AS%s.%s", asn[0], asnZone))
	if err != nil {
		return "", fmt.Errorf("AS%s lookup: %w", asn[0], err)
	}
	// "13335 | US | arin | 2010-07-14 | CLOUDFLARENET, US"
	fields := strings.Split(desc[0], "|")
	org := strings.TrimSpace(fields[len(fields)-1])
	if len(fields) < 2 || org == "" {
		return "", sharedErrors.ErrNoOrganization
	}
	return org, nil
}

func originName(ip netip.Addr) string {
	if ip.Is4() || ip.Is4In6() {
		b := ip.Unmap().As4()
		return fmt.Sprintf("%d.%d.%d.%d.%s", b[3], b[2], b[1], b[0], originZone)
	}

	b := ip.As16()
	nibbles := make([]string, 0, 32)
	for i := len(b) - 1; i >= 0; i-- {
		nibbles = append(nibbles, fmt.Sprintf("%x", b[i]&0x0f), fmt.Sprintf("%x", b[i]>>4))
	}
	return strings.Join(nibbles, ".") + "." + origin6Zone
}
