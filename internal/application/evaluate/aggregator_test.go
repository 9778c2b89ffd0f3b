package evaluate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
)

func TestAggregator_CollectsInArrivalOrder(t *testing.T) {
	tls := okProbe("tls", evaluation.KindTLS, "TLS 1.3 supported")
	cdn := okProbe("cdn", evaluation.KindCDN, "no CDN detected")

	inbox := make(chan evaluation.Outcome, 2)
	inbox <- cdn.Check(context.Background(), target)
	inbox <- tls.Check(context.Background(), target)

	var observed []string
	agg := NewAggregator([]checker.Probe{tls, cdn}, func(out evaluation.Outcome) {
		observed = append(observed, out.Probe)
	}, nil)

	findings := agg.Collect(context.Background(), inbox)
	require.Len(t, findings, 2)
	assert.Equal(t, []string{"cdn", "tls"}, observed)
}

func TestAggregator_DeadlineProducesErrorFindings(t *testing.T) {
	tls := okProbe("tls", evaluation.KindTLS, "TLS 1.3 supported")
	hung := &fakeProbe{name: "http", kinds: []evaluation.Kind{evaluation.KindHTTP2, evaluation.KindHTTP3}}

	inbox := make(chan evaluation.Outcome, 2)
	inbox <- tls.Check(context.Background(), target)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	findings := NewAggregator([]checker.Probe{tls, hung}, nil, nil).Collect(ctx, inbox)
	require.Len(t, findings, 3)
	assert.Equal(t, evaluation.StatusSupported, findings[0].Status)
	for _, f := range findings[1:] {
		assert.Equal(t, evaluation.StatusError, f.Status)
		assert.Equal(t, "probe http did not finish before the deadline", f.Detail)
	}
	assert.Equal(t, evaluation.KindHTTP2, findings[1].Kind)
	assert.Equal(t, evaluation.KindHTTP3, findings[2].Kind)
}

func TestAggregator_Cancelled(t *testing.T) {
	hung := &fakeProbe{name: "latency", kinds: []evaluation.Kind{evaluation.KindLatency}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	findings := NewAggregator([]checker.Probe{hung}, nil, nil).Collect(ctx, make(chan evaluation.Outcome))
	require.Len(t, findings, 1)
	assert.Equal(t, "probe latency was cancelled", findings[0].Detail)
}

func TestAggregator_IgnoresDuplicatesAndStrangers(t *testing.T) {
	tls := okProbe("tls", evaluation.KindTLS, "TLS 1.3 supported")

	inbox := make(chan evaluation.Outcome, 3)
	inbox <- evaluation.Outcome{Probe: "rogue", Findings: []evaluation.Finding{evaluation.Failed(evaluation.KindCDN, "x")}}
	inbox <- tls.Check(context.Background(), target)
	inbox <- evaluation.Outcome{Probe: "tls", Findings: []evaluation.Finding{evaluation.Failed(evaluation.KindTLS, "late")}}
	close(inbox)

	calls := 0
	findings := NewAggregator([]checker.Probe{tls}, func(evaluation.Outcome) { calls++ }, nil).Collect(context.Background(), inbox)
	require.Len(t, findings, 1)
	assert.Equal(t, "TLS 1.3 supported", findings[0].Detail)
	assert.Equal(t, 1, calls)
}

func TestAggregator_FillsMissingKinds(t *testing.T) {
	http := &fakeProbe{
		name:     "http",
		kinds:    []evaluation.Kind{evaluation.KindHTTP2, evaluation.KindHTTP3},
		findings: []evaluation.Finding{evaluation.Supported(evaluation.KindHTTP2, "HTTP/2 supported")},
	}
	inbox := make(chan evaluation.Outcome, 1)
	inbox <- http.Check(context.Background(), target)

	findings := NewAggregator([]checker.Probe{http}, nil, nil).Collect(context.Background(), inbox)
	require.Len(t, findings, 2)
	assert.Equal(t, evaluation.KindHTTP3, findings[1].Kind)
	assert.Equal(t, evaluation.StatusError, findings[1].Status)
}
