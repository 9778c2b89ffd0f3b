package evaluate

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

// fakeProbe returns canned findings after an optional delay.
type fakeProbe struct {
	name     string
	kinds    []evaluation.Kind
	findings []evaluation.Finding
	delay    time.Duration
	panicMsg string
	calls    atomic.Int32
}

func (p *fakeProbe) Name() string             { return p.name }
func (p *fakeProbe) Kinds() []evaluation.Kind { return p.kinds }

func (p *fakeProbe) Check(ctx context.Context, _ evaluation.Target) evaluation.Outcome {
	p.calls.Add(1)
	if p.panicMsg != "" {
		panic(p.panicMsg)
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return evaluation.Outcome{Probe: p.name, Findings: []evaluation.Finding{evaluation.Failed(p.kinds[0], ctx.Err().Error())}}
		}
	}
	return evaluation.Outcome{Probe: p.name, Findings: p.findings}
}

func okProbe(name string, kind evaluation.Kind, detail string) *fakeProbe {
	return &fakeProbe{
		name:     name,
		kinds:    []evaluation.Kind{kind},
		findings: []evaluation.Finding{evaluation.Supported(kind, detail)},
	}
}

type stubPorts struct {
	port  int
	err   error
	calls atomic.Int32
}

func (s *stubPorts) Resolve(_ context.Context, target evaluation.Target) (evaluation.Target, error) {
	s.calls.Add(1)
	if s.err != nil {
		return target, s.err
	}
	if target.HasPort() {
		return target, nil
	}
	return target.WithPort(s.port), nil
}
