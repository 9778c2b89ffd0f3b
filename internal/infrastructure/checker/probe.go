package checker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

// Probe is implemented by every check dispatched against a target.
type Probe interface {
	// Check runs the probe and always returns an outcome; failures become
	// error findings.
	Check(ctx context.Context, target evaluation.Target) evaluation.Outcome

	// Name identifies the probe in progress output and deadline findings.
	Name() string

	// Kinds lists the finding kinds Check delivers, in order.
	Kinds() []evaluation.Kind
}

// Probe names.
const (
	ProbeTLS      = "tls"
	ProbeHTTP     = "http"
	ProbeCDN      = "cdn"
	ProbeRedirect = "redirect"
	ProbeLatency  = "latency"
)

func single(name string, f evaluation.Finding) evaluation.Outcome {
	return evaluation.Outcome{Probe: name, Findings: []evaluation.Finding{f}}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func loggerOrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
