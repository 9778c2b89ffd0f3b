package application

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	evaluateapp "github.com/d0t0ne/dignezzz/internal/application/evaluate"
	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// ASN lookup sources.
const (
	ASNSourceWhois = "whois"
	ASNSourceDNS   = "dns"
)

// Timeouts bounds each kind of network operation.
type Timeouts struct {
	Connect  time.Duration
	TLS      time.Duration
	HTTP     time.Duration
	DNS      time.Duration
	ICMP     time.Duration
	Deadline time.Duration
}

// Options is everything needed to assemble an evaluator.
type Options struct {
	Profile     evaluateapp.Profile
	Policy      evaluation.Policy
	Timeouts    Timeouts
	Ports       []int
	PingCount   int
	Bands       evaluation.RatingBands
	Nameservers []string
	Insecure    bool
	UserAgent   string

	ASNSource   string
	WhoisServer string
	IPInfoURL   string
	IPInfoToken string
	IPInfoRate  float64
	Providers   []checker.Provider

	OnOutcome func(evaluation.Outcome)
	Logger    *zap.SugaredLogger
}

// Container holds the network clients and the evaluator built from them.
// This is a simple dependency injection container
type Container struct {
	// Capabilities
	Resolver *network.Resolver
	TLS      *network.TLSClient
	HTTP     *network.HTTPClient
	Pinger   *network.Pinger
	ASN      checker.ASNLookup
	IPIntel  *network.IPInfoClient

	// Services
	Evaluator *evaluateapp.Evaluator
}

// NewContainer wires the probes selected by opts.Profile.
func NewContainer(opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	t := withDefaultTimeouts(opts.Timeouts)

	policy := opts.Policy
	if policy.MinRating <= 0 {
		policy.MinRating = evaluation.DefaultPolicy().MinRating
	}
	if policy.Advisory == nil {
		policy.Advisory = evaluation.DefaultPolicy().Advisory
	}

	bands := opts.Bands
	if len(bands) == 0 {
		bands = evaluation.DefaultBands()
	}
	if err := bands.Validate(); err != nil {
		return nil, fmt.Errorf("invalid latency bands: %w", err)
	}

	resolver := network.NewResolver(opts.Nameservers, t.DNS)
	tlsClient := &network.TLSClient{Timeout: t.TLS, InsecureSkipVerify: opts.Insecure}
	httpClient := &network.HTTPClient{Timeout: t.HTTP, InsecureSkipVerify: opts.Insecure, UserAgent: opts.UserAgent}
	pinger := &network.Pinger{Resolver: resolver}

	var asn checker.ASNLookup
	switch opts.ASNSource {
	case "", ASNSourceWhois:
		asn = &network.WhoisASN{Server: opts.WhoisServer, Timeout: t.DNS}
	case ASNSourceDNS:
		asn = &network.DNSASN{Resolver: resolver}
	default:
		return nil, fmt.Errorf("%w: asn source %q (want %s or %s)", sharedErrors.ErrInvalidInput, opts.ASNSource, ASNSourceWhois, ASNSourceDNS)
	}
	ipIntel := network.NewIPInfoClient(opts.IPInfoURL, opts.IPInfoToken, opts.IPInfoRate, t.DNS)

	tiers := make([]checker.CDNTier, 0, len(opts.Profile.CDNTiers))
	for _, tier := range opts.Profile.CDNTiers {
		switch tier {
		case evaluation.TierHeaders:
			tiers = append(tiers, &checker.HeaderTier{HTTP: httpClient, Timeout: t.HTTP})
		case evaluation.TierASN:
			tiers = append(tiers, &checker.ASNTier{Lookup: asn, Timeout: t.DNS})
		case evaluation.TierIPOrg:
			tiers = append(tiers, &checker.IPOrgTier{Intel: ipIntel, Timeout: t.DNS})
		case evaluation.TierCertificate:
			tiers = append(tiers, &checker.CertificateTier{Handshaker: tlsClient, Timeout: t.TLS})
		default:
			return nil, fmt.Errorf("%w: CDN tier %q", sharedErrors.ErrInvalidInput, tier)
		}
	}

	probes := []checker.Probe{
		&checker.TLSProbe{Handshaker: tlsClient, Timeout: t.TLS, Logger: logger},
		&checker.HTTPProtocolProbe{
			HTTP:        httpClient,
			Handshaker:  tlsClient,
			EnableHTTP3: opts.Profile.EnableHTTP3,
			Timeout:     t.HTTP,
			Logger:      logger,
		},
		&checker.CDNProbe{
			Tiers:     tiers,
			Providers: checker.MergeProviders(opts.Providers),
			Resolver:  resolver,
			Logger:    logger,
		},
		&checker.RedirectProbe{HTTP: httpClient, Timeout: t.HTTP},
		&checker.LatencyProbe{
			Pinger:    pinger,
			Bands:     bands,
			MinRating: policy.MinRating,
			Count:     opts.PingCount,
			Timeout:   t.ICMP,
			Logger:    logger,
		},
	}

	evaluator := &evaluateapp.Evaluator{
		Ports:     &checker.PortProber{Timeout: t.Connect, Candidates: opts.Ports, Logger: logger},
		Probes:    probes,
		Policy:    policy,
		Profile:   opts.Profile.Name,
		Deadline:  t.Deadline,
		OnOutcome: opts.OnOutcome,
		Logger:    logger,
	}

	return &Container{
		Resolver:  resolver,
		TLS:       tlsClient,
		HTTP:      httpClient,
		Pinger:    pinger,
		ASN:       asn,
		IPIntel:   ipIntel,
		Evaluator: evaluator,
	}, nil
}

func withDefaultTimeouts(t Timeouts) Timeouts {
	if t.Connect <= 0 {
		t.Connect = consts.ConnectTimeout
	}
	if t.TLS <= 0 {
		t.TLS = consts.TLSHandshakeTimeout
	}
	if t.HTTP <= 0 {
		t.HTTP = consts.HTTPTimeout
	}
	if t.DNS <= 0 {
		t.DNS = consts.DNSTimeout
	}
	if t.ICMP <= 0 {
		t.ICMP = consts.ICMPTimeout
	}
	if t.Deadline <= 0 {
		t.Deadline = consts.EvaluationDeadline
	}
	return t
}
