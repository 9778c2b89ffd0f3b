package checker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
)

// HeaderTier matches provider tokens against the response headers of a HEAD
// request.
type HeaderTier struct {
	HTTP    HTTPDoer
	Timeout time.Duration
}

// Tier reports the headers tier.
func (t *HeaderTier) Tier() evaluation.EvidenceTier { return evaluation.TierHeaders }

// Detect fetches the HTTPS headers and matches them against the provider table.
func (t *HeaderTier) Detect(ctx context.Context, q *CDNQuery) (Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(t.Timeout, consts.HTTPTimeout))
	defer cancel()

	resp, err := t.HTTP.Head(ctx, q.Target.HTTPSURL(), false)
	if err != nil {
		return NoMatch(), fmt.Errorf("HEAD request: %w", err)
	}

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var blob strings.Builder
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			blob.WriteString(strings.ToLower(k) + ": " + strings.ToLower(v) + "\n")
		}
	}
	return q.Match(blob.String(), evaluation.TierHeaders), nil
}

// ASNTier matches the name of the AS announcing the target address.
type ASNTier struct {
	Lookup  ASNLookup
	Timeout time.Duration
}

// Tier reports the ASN tier.
func (t *ASNTier) Tier() evaluation.EvidenceTier { return evaluation.TierASN }

// Detect resolves the target and matches its AS name.
func (t *ASNTier) Detect(ctx context.Context, q *CDNQuery) (Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(t.Timeout, consts.DNSTimeout))
	defer cancel()

	ip, err := q.IP(ctx)
	if err != nil {
		return NoMatch(), fmt.Errorf("resolve %s: %w", q.Target.Domain, err)
	}
	org, err := t.Lookup.Organization(ctx, ip)
	if err != nil {
		return NoMatch(), fmt.Errorf("ASN lookup for %s: %w", ip, err)
	}
	return q.Match(org, evaluation.TierASN), nil
}

// IPOrgTier matches the organization an IP-intelligence service reports.
type IPOrgTier struct {
	Intel   IPIntel
	Timeout time.Duration
}

// Tier reports the IP organization tier.
func (t *IPOrgTier) Tier() evaluation.EvidenceTier { return evaluation.TierIPOrg }

// Detect resolves the target and matches the organization owning its address.
func (t *IPOrgTier) Detect(ctx context.Context, q *CDNQuery) (Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(t.Timeout, consts.DNSTimeout))
	defer cancel()

	ip, err := q.IP(ctx)
	if err != nil {
		return NoMatch(), fmt.Errorf("resolve %s: %w", q.Target.Domain, err)
	}
	org, err := t.Intel.Organization(ctx, ip)
	if err != nil {
		return NoMatch(), fmt.Errorf("IP organization lookup for %s: %w", ip, err)
	}
	return q.Match(org, evaluation.TierIPOrg), nil
}

// CertificateTier matches the subject, issuer and SAN names presented during
// a TLS handshake. The chain is inspected without verification.
type CertificateTier struct {
	Handshaker Handshaker
	Timeout    time.Duration
}

// Tier reports the certificate tier.
func (t *CertificateTier) Tier() evaluation.EvidenceTier { return evaluation.TierCertificate }

// Detect handshakes with the target and matches the presented certificate names.
func (t *CertificateTier) Detect(ctx context.Context, q *CDNQuery) (Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(t.Timeout, consts.TLSHandshakeTimeout))
	defer cancel()

	state, err := t.Handshaker.Handshake(ctx, q.Target.Address(), q.Target.Domain, network.HandshakeOptions{Inspect: true})
	if err != nil {
		return NoMatch(), fmt.Errorf("certificate handshake: %w", err)
	}
	return q.Match(network.CertificateText(state), evaluation.TierCertificate), nil
}
