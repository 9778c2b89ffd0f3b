package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
)

// TLSProbe checks whether the target negotiates TLS 1.3.
type TLSProbe struct {
	Handshaker Handshaker
	Timeout    time.Duration
	Logger     *zap.SugaredLogger
}

// Name returns the probe name.
func (p *TLSProbe) Name() string {
	return ProbeTLS
}

// Kinds returns the kinds Check delivers.
func (p *TLSProbe) Kinds() []evaluation.Kind {
	return []evaluation.Kind{evaluation.KindTLS}
}

// Check forces a TLS 1.3 handshake and, when that fails, repeats it without a
// version constraint to report what the server does negotiate.
func (p *TLSProbe) Check(ctx context.Context, target evaluation.Target) evaluation.Outcome {
	ctx, cancel := context.WithTimeout(ctx, orDefault(p.Timeout, consts.TLSHandshakeTimeout))
	defer cancel()

	addr := target.Address()
	state, err := p.Handshaker.Handshake(ctx, addr, target.Domain, network.HandshakeOptions{
		MinVersion: tls.VersionTLS13,
		MaxVersion: tls.VersionTLS13,
	})
	if err == nil && state.Version == tls.VersionTLS13 {
		return single(ProbeTLS, tls13Supported())
	}
	loggerOrNop(p.Logger).Debugw("forced TLS 1.3 handshake failed", "target", addr, "error", err)

	state, err = p.Handshaker.Handshake(ctx, addr, target.Domain, network.HandshakeOptions{})
	if err != nil {
		return single(ProbeTLS, evaluation.Failed(evaluation.KindTLS, fmt.Sprintf("TLS handshake failed: %v", err)))
	}
	if state.Version == tls.VersionTLS13 {
		return single(ProbeTLS, tls13Supported())
	}

	version := network.VersionName(state.Version)
	f := evaluation.Unsupported(evaluation.KindTLS, fmt.Sprintf("TLS 1.3 not supported (negotiated %s)", version))
	f.Protocol = version
	return single(ProbeTLS, f)
}

func tls13Supported() evaluation.Finding {
	f := evaluation.Supported(evaluation.KindTLS, "TLS 1.3 supported")
	f.Protocol = network.VersionName(tls.VersionTLS13)
	return f
}
