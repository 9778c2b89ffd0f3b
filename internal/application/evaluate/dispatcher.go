package evaluate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
)

// Dispatcher launches one goroutine per probe. Each probe delivers exactly
// one outcome to the returned inbox, which is closed once every probe has
// returned.
type Dispatcher struct {
	Logger *zap.SugaredLogger
}

// Dispatch starts the probes and returns their inbox. The inbox is buffered
// to the number of probes, so senders never block on a reader that stopped
// early.
func (d *Dispatcher) Dispatch(ctx context.Context, target evaluation.Target, probes []checker.Probe) <-chan evaluation.Outcome {
	inbox := make(chan evaluation.Outcome, len(probes))

	var g errgroup.Group
	for _, probe := range probes {
		probe := probe
		g.Go(func() error {
			inbox <- d.run(ctx, target, probe)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(inbox)
	}()

	return inbox
}

func (d *Dispatcher) run(ctx context.Context, target evaluation.Target, probe checker.Probe) (out evaluation.Outcome) {
	log := d.logger()
	name := probe.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("probe panicked", "probe", name, "panic", r)
			out = failedOutcome(probe, fmt.Sprintf("probe %s panicked: %v", name, r))
		}
	}()

	out = probe.Check(ctx, target)
	out.Probe = name
	log.Debugw("probe finished", "probe", name, "target", target.String(),
		"duration", time.Since(start), "findings", len(out.Findings))
	return out
}

func (d *Dispatcher) logger() *zap.SugaredLogger {
	if d == nil || d.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return d.Logger
}

func failedOutcome(probe checker.Probe, detail string) evaluation.Outcome {
	kinds := probe.Kinds()
	findings := make([]evaluation.Finding, 0, len(kinds))
	for _, kind := range kinds {
		findings = append(findings, evaluation.Failed(kind, detail))
	}
	return evaluation.Outcome{Probe: probe.Name(), Findings: findings}
}
