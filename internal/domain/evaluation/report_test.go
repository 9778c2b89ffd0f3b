package evaluation

import (
	"testing"
	"time"
)

func TestNewReportOrdersFindings(t *testing.T) {
	lat := Supported(KindLatency, "average RTT 1.20 ms (rating 5/5)")
	lat.Latency = &LatencyEvidence{Reachable: true, Rating: 5}

	findings := []Finding{
		lat,
		Unsupported(KindCDN, "CDN in use: Cloudflare (headers)"),
		Supported(KindHTTP2, "HTTP/2 supported"),
		Supported(KindTLS, "TLS 1.3 supported"),
		Unsupported(KindHTTP3, "HTTP/3 not offered (ALPN h2)"),
	}
	start := time.Now()
	r := NewReport(Target{Domain: "example.com", Port: 443}, "sni", start, start.Add(2*time.Second), findings)

	want := []Kind{KindTLS, KindHTTP2, KindHTTP3, KindCDN, KindLatency}
	got := r.Findings()
	if len(got) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(got))
	}
	for i, k := range want {
		if got[i].Kind != k {
			t.Fatalf("finding %d: expected %s, got %s", i, k, got[i].Kind)
		}
	}

	// Input and returned slices must not alias the report.
	findings[0] = Failed(KindLatency, "mutated")
	got[0] = Failed(KindTLS, "mutated")
	if f, _ := r.Find(KindTLS); f.Detail != "TLS 1.3 supported" {
		t.Fatalf("report was mutated through a returned slice: %q", f.Detail)
	}
	if r.LatencyRating() != 5 {
		t.Fatalf("expected rating 5, got %d", r.LatencyRating())
	}

	if r.ID() == "" || r.Profile() != "sni" || r.Duration() != 2*time.Second {
		t.Fatalf("unexpected metadata id=%q profile=%q duration=%s", r.ID(), r.Profile(), r.Duration())
	}
	if other := NewReport(r.Target(), "sni", start, start, nil); other.ID() == r.ID() {
		t.Fatal("report ids must be unique")
	}
}

func TestReportFindMissing(t *testing.T) {
	r := NewReport(Target{Domain: "example.com"}, "dest", time.Now(), time.Now(), []Finding{
		Failed(KindLatency, "latency measurement failed: boom"),
	})
	if _, ok := r.Find(KindRedirect); ok {
		t.Fatal("expected no redirect finding")
	}
	if r.LatencyRating() != 0 {
		t.Fatalf("latency without evidence must rate 0, got %d", r.LatencyRating())
	}
}

func TestReportEvidenceIsNotShared(t *testing.T) {
	cdn := Supported(KindCDN, "no CDN detected")
	cdn.CDN = &CDNEvidence{TiersRun: []EvidenceTier{TierHeaders}, SoftErrors: []string{"asn: timeout"}}
	redirect := Supported(KindRedirect, "no redirect")
	redirect.Redirect = &RedirectEvidence{StatusCode: 200}
	lat := Supported(KindLatency, "average RTT 1.00 ms (rating 5/5)")
	lat.Latency = &LatencyEvidence{Reachable: true, Rating: 5}

	r := NewReport(Target{Domain: "example.com", Port: 443}, "sni", time.Now(), time.Now(), []Finding{cdn, redirect, lat})

	// Changes through the caller's original pointers.
	cdn.CDN.SoftErrors[0] = "changed"
	redirect.Redirect.StatusCode = 302
	lat.Latency.Rating = 1

	// Changes through evidence handed out by the report.
	got := r.Findings()
	got[0].CDN.TiersRun[0] = TierCertificate
	got[0].CDN.SoftErrors = append(got[0].CDN.SoftErrors, "extra")
	found, _ := r.Find(KindLatency)
	found.Latency.Rating = 2

	f, _ := r.Find(KindCDN)
	if f.CDN.SoftErrors[0] != "asn: timeout" || len(f.CDN.SoftErrors) != 1 || f.CDN.TiersRun[0] != TierHeaders {
		t.Fatalf("CDN evidence was modified: %+v", f.CDN)
	}
	if f, _ := r.Find(KindRedirect); f.Redirect.StatusCode != 200 {
		t.Fatalf("redirect evidence was modified: %+v", f.Redirect)
	}
	if r.LatencyRating() != 5 {
		t.Fatalf("latency evidence was modified: rating %d", r.LatencyRating())
	}
}
