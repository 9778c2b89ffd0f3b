package evaluation

import "time"

// Kind identifies which check produced a Finding.
type Kind string

const (
	KindTLS      Kind = "tls"
	KindHTTP2    Kind = "http2"
	KindHTTP3    Kind = "http3"
	KindCDN      Kind = "cdn"
	KindRedirect Kind = "redirect"
	KindLatency  Kind = "latency"
)

// Kinds lists every kind in canonical report order.
var Kinds = []Kind{KindTLS, KindHTTP2, KindHTTP3, KindCDN, KindRedirect, KindLatency}

func (k Kind) order() int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// Status is the outcome of a single check.
type Status string

const (
	StatusSupported   Status = "supported"
	StatusUnsupported Status = "unsupported"
	StatusError       Status = "error"
)

// Polarity is the direction in which a Finding pushes the verdict.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// EvidenceTier names the CDN detection tier that produced a match.
type EvidenceTier string

const (
	TierHeaders     EvidenceTier = "headers"
	TierASN         EvidenceTier = "asn"
	TierIPOrg       EvidenceTier = "ip-org"
	TierCertificate EvidenceTier = "certificate"
)

// CDNEvidence records which provider was detected and by which tier.
type CDNEvidence struct {
	Provider   string         `json:"provider,omitempty" yaml:"provider,omitempty"`
	Tier       EvidenceTier   `json:"tier,omitempty" yaml:"tier,omitempty"`
	TiersRun   []EvidenceTier `json:"tiers_run,omitempty" yaml:"tiers_run,omitempty"`
	SoftErrors []string       `json:"soft_errors,omitempty" yaml:"soft_errors,omitempty"`
}

// LatencyEvidence carries the ICMP statistics behind a latency rating.
// Rating is 0 when the host did not answer.
type LatencyEvidence struct {
	Reachable  bool          `json:"reachable" yaml:"reachable"`
	AverageRTT time.Duration `json:"average_rtt_ns,omitempty" yaml:"average_rtt,omitempty"`
	Sent       int           `json:"sent" yaml:"sent"`
	Received   int           `json:"received" yaml:"received"`
	Rating     int           `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// AverageRTTMs returns the average RTT in milliseconds.
func (l LatencyEvidence) AverageRTTMs() float64 {
	return float64(l.AverageRTT) / float64(time.Millisecond)
}

// RedirectEvidence describes the response of the redirect check.
type RedirectEvidence struct {
	Found      bool   `json:"found" yaml:"found"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
}

// Finding is one piece of evidence produced by a probe. It is built once
// and never modified afterwards. Protocol holds the observed TLS version or
// ALPN value when the check has one.
type Finding struct {
	Kind     Kind              `json:"kind" yaml:"kind"`
	Status   Status            `json:"status" yaml:"status"`
	Polarity Polarity          `json:"polarity" yaml:"polarity"`
	Detail   string            `json:"detail" yaml:"detail"`
	Protocol string            `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	CDN      *CDNEvidence      `json:"cdn,omitempty" yaml:"cdn,omitempty"`
	Latency  *LatencyEvidence  `json:"latency,omitempty" yaml:"latency,omitempty"`
	Redirect *RedirectEvidence `json:"redirect,omitempty" yaml:"redirect,omitempty"`
}

// Supported builds a positive finding.
func Supported(kind Kind, detail string) Finding {
	return Finding{Kind: kind, Status: StatusSupported, Polarity: PolarityPositive, Detail: detail}
}

// Unsupported builds a negative finding for a check that completed.
func Unsupported(kind Kind, detail string) Finding {
	return Finding{Kind: kind, Status: StatusUnsupported, Polarity: PolarityNegative, Detail: detail}
}

// Failed builds a negative finding for a check that could not complete.
func Failed(kind Kind, detail string) Finding {
	return Finding{Kind: kind, Status: StatusError, Polarity: PolarityNegative, Detail: detail}
}

// IsPositive reports whether the finding supports acceptance.
func (f Finding) IsPositive() bool {
	return f.Polarity == PolarityPositive
}

// IsCDNDetection reports whether the finding is an actual CDN provider match,
// as opposed to a failed detection.
func (f Finding) IsCDNDetection() bool {
	return f.Kind == KindCDN && f.Status == StatusUnsupported && f.Polarity == PolarityNegative
}

// clone returns a copy that shares no evidence with f.
func (f Finding) clone() Finding {
	if f.CDN != nil {
		cdn := *f.CDN
		cdn.TiersRun = append([]EvidenceTier(nil), f.CDN.TiersRun...)
		cdn.SoftErrors = append([]string(nil), f.CDN.SoftErrors...)
		f.CDN = &cdn
	}
	if f.Latency != nil {
		latency := *f.Latency
		f.Latency = &latency
	}
	if f.Redirect != nil {
		redirect := *f.Redirect
		f.Redirect = &redirect
	}
	return f
}

func cloneFindings(findings []Finding) []Finding {
	if findings == nil {
		return nil
	}
	out := make([]Finding, len(findings))
	for i, f := range findings {
		out[i] = f.clone()
	}
	return out
}

// Outcome is what one probe task delivers to the aggregator.
type Outcome struct {
	Probe    string
	Findings []Finding
}
