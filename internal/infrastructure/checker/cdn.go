package checker

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

// Provider maps a lower-case token found in CDN evidence to a display name.
type Provider struct {
	Token string `mapstructure:"token" json:"token" yaml:"token"`
	Name  string `mapstructure:"name" json:"name" yaml:"name"`
}

// DefaultProviders is the built-in provider table, matched in order.
var DefaultProviders = []Provider{
	{Token: "cloudflare", Name: "Cloudflare"},
	{Token: "akamai", Name: "Akamai"},
	{Token: "fastly", Name: "Fastly"},
	{Token: "incapsula", Name: "Incapsula"},
	{Token: "sucuri", Name: "Sucuri"},
	{Token: "stackpath", Name: "StackPath"},
	{Token: "cdn77", Name: "CDN77"},
	{Token: "edgecast", Name: "Edgecast"},
	{Token: "keycdn", Name: "KeyCDN"},
	{Token: "azure", Name: "Azure CDN"},
	{Token: "aliyun", Name: "Alibaba Cloud CDN"},
	{Token: "baidu", Name: "Baidu Cloud CDN"},
	{Token: "tencent", Name: "Tencent Cloud CDN"},
}

// MergeProviders returns the default table followed by extra entries whose
// token is not already known. Tokens are lower-cased.
func MergeProviders(extra []Provider) []Provider {
	out := make([]Provider, len(DefaultProviders), len(DefaultProviders)+len(extra))
	copy(out, DefaultProviders)
	seen := make(map[string]bool, cap(out))
	for _, p := range out {
		seen[p.Token] = true
	}
	for _, p := range extra {
		token := strings.ToLower(strings.TrimSpace(p.Token))
		if token == "" || seen[token] {
			continue
		}
		name := p.Name
		if name == "" {
			name = p.Token
		}
		seen[token] = true
		out = append(out, Provider{Token: token, Name: name})
	}
	return out
}

// Detection is the result of one tier: either no match, or a match naming
// the provider and the tier that found it.
type Detection struct {
	matched  bool
	Provider string
	Tier     evaluation.EvidenceTier
}

// NoMatch is returned by a tier that completed without finding a provider.
func NoMatch() Detection {
	return Detection{}
}

// Match is returned by a tier that identified provider.
func Match(provider string, tier evaluation.EvidenceTier) Detection {
	return Detection{matched: true, Provider: provider, Tier: tier}
}

// Matched reports whether the detection names a provider.
func (d Detection) Matched() bool {
	return d.matched
}

// CDNTier is one step of the detection chain.
type CDNTier interface {
	Tier() evaluation.EvidenceTier
	Detect(ctx context.Context, q *CDNQuery) (Detection, error)
}

// CDNQuery is shared by every tier of one chain run. The target's address is
// resolved at most once, on first use.
type CDNQuery struct {
	Target    evaluation.Target
	providers []Provider
	resolver  Resolver

	once  sync.Once
	ip    netip.Addr
	ipErr error
}

// NewCDNQuery builds the query for a single chain run.
func NewCDNQuery(target evaluation.Target, resolver Resolver, providers []Provider) *CDNQuery {
	if len(providers) == 0 {
		providers = DefaultProviders
	}
	return &CDNQuery{Target: target, providers: providers, resolver: resolver}
}

// IP returns the first A record of the target domain.
func (q *CDNQuery) IP(ctx context.Context) (netip.Addr, error) {
	q.once.Do(func() {
		if q.resolver == nil {
			q.ipErr = fmt.Errorf("no resolver configured")
			return
		}
		q.ip, q.ipErr = q.resolver.LookupA(ctx, q.Target.Domain)
	})
	return q.ip, q.ipErr
}

// Match tests text against the provider table, case-insensitively.
func (q *CDNQuery) Match(text string, tier evaluation.EvidenceTier) Detection {
	lower := strings.ToLower(text)
	for _, p := range q.providers {
		if strings.Contains(lower, p.Token) {
			return Match(p.Name, tier)
		}
	}
	return NoMatch()
}

// CDNProbe runs the tier chain and stops at the first match.
type CDNProbe struct {
	Tiers     []CDNTier
	Providers []Provider
	Resolver  Resolver
	Logger    *zap.SugaredLogger
}

// Name returns the probe name.
func (p *CDNProbe) Name() string {
	return ProbeCDN
}

// Kinds returns the kinds Check delivers.
func (p *CDNProbe) Kinds() []evaluation.Kind {
	return []evaluation.Kind{evaluation.KindCDN}
}

// Check reports a negative finding naming the provider when any tier
// matches, and a positive one otherwise. Tier errors never stop the chain.
func (p *CDNProbe) Check(ctx context.Context, target evaluation.Target) evaluation.Outcome {
	log := loggerOrNop(p.Logger)
	q := NewCDNQuery(target, p.Resolver, p.Providers)
	evidence := &evaluation.CDNEvidence{}

	for _, tier := range p.Tiers {
		if err := ctx.Err(); err != nil {
			evidence.SoftErrors = append(evidence.SoftErrors, fmt.Sprintf("%s: %v", tier.Tier(), err))
			break
		}
		evidence.TiersRun = append(evidence.TiersRun, tier.Tier())

		det, err := tier.Detect(ctx, q)
		if err != nil {
			log.Debugw("CDN tier failed", "target", target.Domain, "tier", tier.Tier(), "error", err)
			evidence.SoftErrors = append(evidence.SoftErrors, fmt.Sprintf("%s: %v", tier.Tier(), err))
			continue
		}
		if det.Matched() {
			evidence.Provider = det.Provider
			evidence.Tier = det.Tier
			f := evaluation.Unsupported(evaluation.KindCDN, fmt.Sprintf("CDN in use: %s (%s)", det.Provider, det.Tier))
			f.CDN = evidence
			return single(ProbeCDN, f)
		}
	}

	if len(evidence.SoftErrors) > 0 {
		log.Warnw("CDN detection finished with errors", "target", target.Domain, "errors", len(evidence.SoftErrors))
	}
	f := evaluation.Supported(evaluation.KindCDN, "no CDN detected")
	f.CDN = evidence
	return single(ProbeCDN, f)
}
