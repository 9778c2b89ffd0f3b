package evaluate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// PortResolver fixes the port of a target before probes are dispatched.
type PortResolver interface {
	Resolve(ctx context.Context, target evaluation.Target) (evaluation.Target, error)
}

// Evaluator runs a complete evaluation for one target.
type Evaluator struct {
	Ports    PortResolver
	Probes   []checker.Probe
	Policy   evaluation.Policy
	Profile  string
	Deadline time.Duration
	// OnOutcome observes each outcome as it is accepted; used for progress.
	OnOutcome func(evaluation.Outcome)
	Logger    *zap.SugaredLogger

	now func() time.Time
}

// Evaluate resolves connectivity, runs every probe concurrently and decides.
// Connectivity failure is fatal and returns before any probe starts; probe
// failures only ever show up as findings.
func (e *Evaluator) Evaluate(ctx context.Context, target evaluation.Target) (*evaluation.Report, evaluation.Verdict, error) {
	if len(e.Probes) == 0 {
		return nil, evaluation.Verdict{}, sharedErrors.ErrNoProbes
	}
	log := e.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	now := e.now
	if now == nil {
		now = time.Now
	}

	resolved := target
	if e.Ports != nil {
		var err error
		resolved, err = e.Ports.Resolve(ctx, target)
		if err != nil {
			return nil, evaluation.Verdict{}, fmt.Errorf("connectivity check: %w", err)
		}
	} else if !target.HasPort() {
		return nil, evaluation.Verdict{}, fmt.Errorf("connectivity check: %w: no port for %s", sharedErrors.ErrNoReachablePort, target.Domain)
	}
	log.Infow("starting evaluation", "target", resolved.String(), "profile", e.Profile, "probes", len(e.Probes))

	deadline := e.Deadline
	if deadline <= 0 {
		deadline = consts.EvaluationDeadline
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	startedAt := now()
	inbox := (&Dispatcher{Logger: log}).Dispatch(runCtx, resolved, e.Probes)
	findings := NewAggregator(e.Probes, e.OnOutcome, log).Collect(runCtx, inbox)
	completedAt := now()

	report := evaluation.NewReport(resolved, e.Profile, startedAt, completedAt, findings)
	verdict := evaluation.Decide(report, e.Policy)
	log.Infow("evaluation finished", "target", resolved.String(), "accepted", verdict.Accepted,
		"rating", verdict.Rating, "duration", report.Duration())

	return report, verdict, nil
}
