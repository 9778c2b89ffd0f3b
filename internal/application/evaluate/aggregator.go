package evaluate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/checker"
)

// Aggregator is the only owner of the in-progress findings of one
// evaluation. It is not safe for concurrent use; outcomes reach it through
// the dispatcher inbox.
type Aggregator struct {
	probes    []checker.Probe
	received  map[string]evaluation.Outcome
	onOutcome func(evaluation.Outcome)
	logger    *zap.SugaredLogger
}

// NewAggregator expects one outcome per probe. onOutcome, when set, is
// called for every accepted outcome from the collecting goroutine.
func NewAggregator(probes []checker.Probe, onOutcome func(evaluation.Outcome), logger *zap.SugaredLogger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Aggregator{
		probes:    probes,
		received:  make(map[string]evaluation.Outcome, len(probes)),
		onOutcome: onOutcome,
		logger:    logger,
	}
}

// Collect accepts outcomes in arrival order until every probe reported, the
// inbox closes or ctx is done. Probes that did not report get error findings.
func (a *Aggregator) Collect(ctx context.Context, inbox <-chan evaluation.Outcome) []evaluation.Finding {
collect:
	for len(a.received) < len(a.probes) {
		select {
		case out, ok := <-inbox:
			if !ok {
				break collect
			}
			a.accept(out)
		case <-ctx.Done():
			break collect
		}
	}

	reason := "did not finish before the deadline"
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		reason = "was cancelled"
	}
	return a.findings(reason)
}

func (a *Aggregator) accept(out evaluation.Outcome) {
	if !a.expects(out.Probe) {
		a.logger.Warnw("ignoring outcome from unknown probe", "probe", out.Probe)
		return
	}
	if _, dup := a.received[out.Probe]; dup {
		a.logger.Warnw("ignoring duplicate outcome", "probe", out.Probe)
		return
	}
	a.received[out.Probe] = out
	if a.onOutcome != nil {
		a.onOutcome(out)
	}
}

func (a *Aggregator) expects(name string) bool {
	for _, p := range a.probes {
		if p.Name() == name {
			return true
		}
	}
	return false
}

func (a *Aggregator) findings(reason string) []evaluation.Finding {
	var all []evaluation.Finding
	for _, probe := range a.probes {
		name := probe.Name()
		out, ok := a.received[name]
		if !ok {
			a.logger.Warnw("probe missing from report", "probe", name, "reason", reason)
			all = append(all, failedOutcome(probe, fmt.Sprintf("probe %s %s", name, reason)).Findings...)
			continue
		}

		seen := make(map[evaluation.Kind]bool, len(out.Findings))
		for _, f := range out.Findings {
			seen[f.Kind] = true
		}
		all = append(all, out.Findings...)
		for _, kind := range probe.Kinds() {
			if !seen[kind] {
				all = append(all, evaluation.Failed(kind, fmt.Sprintf("probe %s reported no %s finding", name, kind)))
			}
		}
	}
	return all
}
