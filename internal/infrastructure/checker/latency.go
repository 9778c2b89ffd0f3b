package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// LatencyProbe rates the average ICMP round-trip time of the target.
type LatencyProbe struct {
	Pinger    Pinger
	Bands     evaluation.RatingBands
	MinRating int
	Count     int
	Timeout   time.Duration
	Logger    *zap.SugaredLogger
}

// Name returns the probe name.
func (p *LatencyProbe) Name() string {
	return ProbeLatency
}

// Kinds returns the kinds Check delivers.
func (p *LatencyProbe) Kinds() []evaluation.Kind {
	return []evaluation.Kind{evaluation.KindLatency}
}

// Check pings the target and converts the average RTT into a 1..5 rating.
// A rating below MinRating is a negative finding.
func (p *LatencyProbe) Check(ctx context.Context, target evaluation.Target) evaluation.Outcome {
	ctx, cancel := context.WithTimeout(ctx, orDefault(p.Timeout, consts.ICMPTimeout))
	defer cancel()

	count := p.Count
	if count <= 0 {
		count = consts.PingCount
	}
	bands := p.Bands
	if len(bands) == 0 {
		bands = evaluation.DefaultBands()
	}
	minRating := p.MinRating
	if minRating <= 0 {
		minRating = consts.MinAcceptableRating
	}

	stats, err := p.Pinger.Ping(ctx, target.Domain, count)
	evidence := &evaluation.LatencyEvidence{Sent: stats.Sent, Received: stats.Received}
	if err != nil {
		loggerOrNop(p.Logger).Debugw("ping failed", "target", target.Domain, "sent", stats.Sent, "error", err)
		var f evaluation.Finding
		if errors.Is(err, sharedErrors.ErrNoReplies) {
			f = evaluation.Unsupported(evaluation.KindLatency, "host did not answer ICMP echo requests")
		} else {
			f = evaluation.Failed(evaluation.KindLatency, fmt.Sprintf("latency measurement failed: %v", err))
		}
		f.Latency = evidence
		return single(ProbeLatency, f)
	}

	evidence.Reachable = true
	evidence.AverageRTT = stats.Average
	evidence.Rating = bands.Rate(evidence.AverageRTTMs())

	detail := fmt.Sprintf("average RTT %.2f ms (rating %d/%d)", evidence.AverageRTTMs(), evidence.Rating, evaluation.MaxRating)
	var f evaluation.Finding
	if evidence.Rating >= minRating {
		f = evaluation.Supported(evaluation.KindLatency, detail)
	} else {
		f = evaluation.Unsupported(evaluation.KindLatency, detail)
	}
	f.Latency = evidence
	return single(ProbeLatency, f)
}
