package checker

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// PortProber resolves the port an evaluation runs against.
type PortProber struct {
	Timeout    time.Duration
	Candidates []int
	Logger     *zap.SugaredLogger
}

// Resolve returns target with its port fixed. An explicit port is only
// verified; otherwise candidates are tried in order and the first one that
// accepts a TCP connection wins.
func (p *PortProber) Resolve(ctx context.Context, target evaluation.Target) (evaluation.Target, error) {
	log := loggerOrNop(p.Logger)

	candidates := p.Candidates
	if target.HasPort() {
		candidates = []int{target.Port}
	} else if len(candidates) == 0 {
		candidates = consts.DefaultCandidatePorts
	}

	var lastErr error
	for _, port := range candidates {
		if err := ctx.Err(); err != nil {
			return target, err
		}
		err := p.dial(ctx, target.Domain, port)
		if err == nil {
			log.Debugw("port reachable", "target", target.Domain, "port", port)
			return target.WithPort(port), nil
		}
		log.Debugw("port unreachable", "target", target.Domain, "port", port, "error", err)
		lastErr = err
	}
	return target, fmt.Errorf("%w: %s on ports %v: %v", sharedErrors.ErrNoReachablePort, target.Domain, candidates, lastErr)
}

func (p *PortProber) dial(ctx context.Context, host string, port int) error {
	timeout := orDefault(p.Timeout, consts.ConnectTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	return conn.Close()
}
