package checker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	"github.com/d0t0ne/dignezzz/internal/infrastructure/network"
	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
)

const (
	alpnHTTP2  = "h2"
	alpnHTTP3  = "h3"
	alpnHTTP11 = "http/1.1"
)

// HTTPProtocolProbe checks HTTP/2 support and, when enabled, whether HTTP/3
// is offered through ALPN. The sub-checks run concurrently, each with its own
// timeout.
type HTTPProtocolProbe struct {
	HTTP        HTTPDoer
	Handshaker  Handshaker
	EnableHTTP3 bool
	Timeout     time.Duration
	Logger      *zap.SugaredLogger
}

// Name returns the probe name.
func (p *HTTPProtocolProbe) Name() string {
	return ProbeHTTP
}

// Kinds returns the kinds Check delivers.
func (p *HTTPProtocolProbe) Kinds() []evaluation.Kind {
	if p.EnableHTTP3 {
		return []evaluation.Kind{evaluation.KindHTTP2, evaluation.KindHTTP3}
	}
	return []evaluation.Kind{evaluation.KindHTTP2}
}

// Check returns the HTTP/2 finding followed by the HTTP/3 finding when enabled.
func (p *HTTPProtocolProbe) Check(ctx context.Context, target evaluation.Target) evaluation.Outcome {
	findings := make([]evaluation.Finding, 1, 2)
	if p.EnableHTTP3 {
		findings = findings[:2]
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		findings[0] = p.checkHTTP2(ctx, target)
	}()
	if p.EnableHTTP3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			findings[1] = p.checkHTTP3(ctx, target)
		}()
	}
	wg.Wait()

	return evaluation.Outcome{Probe: ProbeHTTP, Findings: findings}
}

func (p *HTTPProtocolProbe) checkHTTP2(ctx context.Context, target evaluation.Target) evaluation.Finding {
	ctx, cancel := context.WithTimeout(ctx, orDefault(p.Timeout, consts.HTTPTimeout))
	defer cancel()
	log := loggerOrNop(p.Logger)

	observed := "unknown"
	resp, err := p.HTTP.Head(ctx, target.HTTPSURL(), true)
	if err == nil {
		if resp.ProtoMajor == 2 {
			return protocolSupported(evaluation.KindHTTP2, "HTTP/2 supported", resp.Proto)
		}
		observed = resp.Proto
	} else {
		log.Debugw("HTTP/2 HEAD request failed", "target", target.String(), "error", err)
	}

	state, err := p.Handshaker.Handshake(ctx, target.Address(), target.Domain, network.HandshakeOptions{
		ALPN: []string{alpnHTTP2, alpnHTTP11},
	})
	if err != nil {
		log.Debugw("ALPN h2 handshake failed", "target", target.String(), "error", err)
	} else if state.NegotiatedProtocol == alpnHTTP2 {
		return protocolSupported(evaluation.KindHTTP2, "HTTP/2 supported (ALPN h2)", alpnHTTP2)
	} else if state.NegotiatedProtocol != "" {
		observed = state.NegotiatedProtocol
	}

	f := evaluation.Unsupported(evaluation.KindHTTP2, fmt.Sprintf("HTTP/2 not supported (observed %s)", observed))
	f.Protocol = observed
	return f
}

func (p *HTTPProtocolProbe) checkHTTP3(ctx context.Context, target evaluation.Target) evaluation.Finding {
	ctx, cancel := context.WithTimeout(ctx, orDefault(p.Timeout, consts.HTTPTimeout))
	defer cancel()

	state, err := p.Handshaker.Handshake(ctx, target.Address(), target.Domain, network.HandshakeOptions{
		ALPN: []string{alpnHTTP3, alpnHTTP11},
	})
	if err != nil {
		loggerOrNop(p.Logger).Debugw("ALPN h3 handshake failed", "target", target.String(), "error", err)
		return evaluation.Unsupported(evaluation.KindHTTP3, "HTTP/3 not offered (handshake failed)")
	}
	if state.NegotiatedProtocol == alpnHTTP3 {
		return protocolSupported(evaluation.KindHTTP3, "HTTP/3 offered via ALPN", alpnHTTP3)
	}

	observed := state.NegotiatedProtocol
	if observed == "" {
		observed = "none"
	}
	f := evaluation.Unsupported(evaluation.KindHTTP3, fmt.Sprintf("HTTP/3 not offered (ALPN %s)", observed))
	f.Protocol = state.NegotiatedProtocol
	return f
}

func protocolSupported(kind evaluation.Kind, detail, protocol string) evaluation.Finding {
	f := evaluation.Supported(kind, detail)
	f.Protocol = protocol
	return f
}
