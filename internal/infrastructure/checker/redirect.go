package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
)

// RedirectProbe issues one GET and reports whether the target redirects.
type RedirectProbe struct {
	HTTP    HTTPDoer
	Timeout time.Duration
}

// Name returns the probe name.
func (p *RedirectProbe) Name() string {
	return ProbeRedirect
}

// Kinds returns the kinds Check delivers.
func (p *RedirectProbe) Kinds() []evaluation.Kind {
	return []evaluation.Kind{evaluation.KindRedirect}
}

// Check treats any 3xx status as a redirect; redirects are never followed.
func (p *RedirectProbe) Check(ctx context.Context, target evaluation.Target) evaluation.Outcome {
	ctx, cancel := context.WithTimeout(ctx, orDefault(p.Timeout, consts.HTTPTimeout))
	defer cancel()

	resp, err := p.HTTP.Get(ctx, target.HTTPSURL())
	if err != nil {
		return single(ProbeRedirect, evaluation.Failed(evaluation.KindRedirect, fmt.Sprintf("redirect check failed: %v", err)))
	}

	evidence := &evaluation.RedirectEvidence{StatusCode: resp.StatusCode, Location: resp.Location}
	var f evaluation.Finding
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		evidence.Found = true
		location := resp.Location
		if location == "" {
			location = "(no Location header)"
		}
		f = evaluation.Unsupported(evaluation.KindRedirect, fmt.Sprintf("redirect found: %s", location))
	} else {
		f = evaluation.Supported(evaluation.KindRedirect, "no redirect")
	}
	f.Redirect = evidence
	return single(ProbeRedirect, f)
}
