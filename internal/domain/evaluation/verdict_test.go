package evaluation

import (
	"reflect"
	"testing"
	"time"
)

func latency(rating int) Finding {
	f := Supported(KindLatency, "average RTT")
	if rating < 4 {
		f = Unsupported(KindLatency, "average RTT too high")
	}
	f.Latency = &LatencyEvidence{Reachable: true, AverageRTT: time.Millisecond, Sent: 5, Received: 5, Rating: rating}
	return f
}

func cdnMatch(provider string) Finding {
	f := Unsupported(KindCDN, "CDN in use: "+provider+" (headers)")
	f.CDN = &CDNEvidence{Provider: provider, Tier: TierHeaders}
	return f
}

func baseline() []Finding {
	return []Finding{
		Supported(KindTLS, "TLS 1.3 supported"),
		Supported(KindHTTP2, "HTTP/2 supported"),
		Supported(KindCDN, "no CDN detected"),
		Supported(KindRedirect, "no redirect"),
		latency(5),
	}
}

func replace(findings []Finding, f Finding) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, existing := range findings {
		if existing.Kind == f.Kind {
			out = append(out, f)
			continue
		}
		out = append(out, existing)
	}
	return out
}

func report(findings []Finding) *Report {
	now := time.Now()
	return NewReport(Target{Domain: "example.com", Port: 443}, "sni", now, now, findings)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		findings []Finding
		accepted bool
		negative int
	}{
		{"all positive", baseline(), true, 0},
		{"cdn only negative", replace(baseline(), cdnMatch("Akamai")), true, 1},
		{"tls negative", replace(baseline(), Unsupported(KindTLS, "TLS 1.3 not supported")), false, 1},
		{"redirect negative", replace(baseline(), Unsupported(KindRedirect, "redirect found")), false, 1},
		{"http2 error", replace(baseline(), Failed(KindHTTP2, "timeout")), false, 1},
		{"cdn and tls negative", replace(replace(baseline(), cdnMatch("Fastly")), Unsupported(KindTLS, "no tls13")), false, 2},
		{"cdn probe error is not the exception", replace(baseline(), Failed(KindCDN, "boom")), false, 1},
		{"rating 4 passes", replace(baseline(), latency(4)), true, 0},
		{"rating 3 fails", replace(baseline(), latency(3)), false, 1},
		{"unreachable ping fails", replace(baseline(), Unsupported(KindLatency, "host did not answer")), false, 1},
		{"cdn only but slow", replace(replace(baseline(), cdnMatch("Akamai")), latency(2)), false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Decide(report(tt.findings), DefaultPolicy())
			if v.Accepted != tt.accepted {
				t.Errorf("Accepted = %v, want %v (negatives %v)", v.Accepted, tt.accepted, v.NegativeReasons)
			}
			if len(v.NegativeReasons) != tt.negative {
				t.Errorf("negative reasons = %v, want %d", v.NegativeReasons, tt.negative)
			}
		})
	}
}

func TestDecide_HTTP3IsAdvisory(t *testing.T) {
	findings := append(baseline(), Unsupported(KindHTTP3, "HTTP/3 not supported"))
	v := Decide(report(findings), DefaultPolicy())

	if !v.Accepted {
		t.Fatalf("HTTP/3 negative must not gate acceptance: %+v", v)
	}
	if len(v.Advisories) != 1 || v.Advisories[0] != "HTTP/3 not supported" {
		t.Fatalf("expected HTTP/3 advisory, got %v", v.Advisories)
	}

	strict := Policy{MinRating: 4}
	if Decide(report(findings), strict).Accepted {
		t.Fatal("a policy without advisories must gate on HTTP/3")
	}
}

func TestDecide_ReasonOrder(t *testing.T) {
	findings := []Finding{
		latency(5),
		Unsupported(KindRedirect, "redirect found: https://other.example"),
		cdnMatch("Akamai"),
		Supported(KindHTTP2, "HTTP/2 supported"),
		Unsupported(KindTLS, "TLS 1.3 not supported"),
	}
	v := Decide(report(findings), DefaultPolicy())

	wantNegative := []string{"TLS 1.3 not supported", "CDN in use: Akamai (headers)", "redirect found: https://other.example"}
	if !reflect.DeepEqual(v.NegativeReasons, wantNegative) {
		t.Fatalf("negative reasons = %v, want %v", v.NegativeReasons, wantNegative)
	}
	wantPositive := []string{"HTTP/2 supported", "average RTT"}
	if !reflect.DeepEqual(v.PositiveReasons, wantPositive) {
		t.Fatalf("positive reasons = %v, want %v", v.PositiveReasons, wantPositive)
	}
}

func TestReportIsImmutable(t *testing.T) {
	findings := baseline()
	r := report(findings)

	findings[0].Detail = "mutated"
	got := r.Findings()
	got[1].Detail = "mutated too"

	for _, f := range r.Findings() {
		if f.Detail == "mutated" || f.Detail == "mutated too" {
			t.Fatalf("report exposed internal state: %+v", f)
		}
	}
	if r.ID() == "" {
		t.Fatal("expected report ID")
	}
	if r.LatencyRating() != 5 {
		t.Fatalf("LatencyRating() = %d, want 5", r.LatencyRating())
	}
}
