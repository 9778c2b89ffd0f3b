package evaluation

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// Target is the host under evaluation. Port 0 means the port has not been
// resolved yet.
type Target struct {
	Domain string `json:"domain" yaml:"domain"`
	Port   int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// ParseTarget accepts "domain", "domain:port" and "[v6]:port".
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, sharedErrors.ErrEmptyTarget
	}
	if strings.Contains(raw, "://") || strings.ContainsAny(raw, "/?# ") {
		return Target{}, fmt.Errorf("%w: %q is not a bare host", sharedErrors.ErrInvalidTarget, raw)
	}

	host, portStr := raw, ""
	switch {
	case strings.HasPrefix(raw, "["):
		h, p, err := net.SplitHostPort(raw)
		if err != nil {
			// "[::1]" without a port
			if strings.HasSuffix(raw, "]") {
				h = strings.Trim(raw, "[]")
			} else {
				return Target{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidTarget, err)
			}
		}
		host, portStr = h, p
	case strings.Count(raw, ":") == 1:
		h, p, err := net.SplitHostPort(raw)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %v", sharedErrors.ErrInvalidTarget, err)
		}
		host, portStr = h, p
	}

	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host in %q", sharedErrors.ErrInvalidTarget, raw)
	}

	t := Target{Domain: host}
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return Target{}, fmt.Errorf("%w: %q", sharedErrors.ErrInvalidPort, portStr)
		}
		t.Port = port
	}
	return t, nil
}

// HasPort reports whether the port is known.
func (t Target) HasPort() bool {
	return t.Port > 0
}

// WithPort returns a copy of t with the port fixed.
func (t Target) WithPort(port int) Target {
	t.Port = port
	return t
}

// Address returns host:port suitable for dialing.
func (t Target) Address() string {
	return net.JoinHostPort(t.Domain, strconv.Itoa(t.Port))
}

// HTTPSURL returns the https URL for the target, omitting the default port.
func (t Target) HTTPSURL() string {
	if t.Port == 0 || t.Port == 443 {
		return "https://" + hostForURL(t.Domain) + "/"
	}
	return "https://" + t.Address() + "/"
}

func (t Target) String() string {
	if !t.HasPort() {
		return t.Domain
	}
	return t.Address()
}

func hostForURL(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
