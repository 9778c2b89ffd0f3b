package network

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"
	"time"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const whoisResponseLimit = 16 * 1024

// WhoisASN looks up the origin AS owner through a Team Cymru style WHOIS
// service in verbose mode:
//
//	AS      | IP               | BGP Prefix          | CC | Registry | Allocated  | AS Name
//	13335   | 1.1.1.1          | 1.1.1.0/24          | US | arin     | 2010-07-14 | CLOUDFLARENET, US
type WhoisASN struct {
	Server  string
	Timeout time.Duration
}

// Organization returns the AS Name column for ip.
func (w *WhoisASN) Organization(ctx context.Context, ip netip.Addr) (string, error) {
	server := w.Server
	if server == "" {
		server = consts.DefaultWhoisServer
	}
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = consts.DNSTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		return "", fmt.Errorf("whois dial %s: %w", server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := fmt.Fprintf(conn, " -v %s\r\n", ip.String()); err != nil {
		return "", fmt.Errorf("whois query: %w", err)
	}

	body, err := io.ReadAll(io.LimitReader(conn, whoisResponseLimit))
	if err != nil && len(body) == 0 {
		return "", fmt.Errorf("whois read: %w", err)
	}
	return parseWhoisOrganization(string(body))
}

func parseWhoisOrganization(body string) (string, error) {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "Bulk mode") {
			continue
		}
		last = line
	}
	if last == "" || strings.HasPrefix(strings.ToUpper(last), "AS ") || strings.HasPrefix(strings.ToUpper(last), "AS\t") {
		return "", sharedErrors.ErrNoOrganization
	}

	fields := strings.Split(last, "|")
	org := strings.TrimSpace(fields[len(fields)-1])
	if len(fields) < 2 || org == "" || strings.EqualFold(org, "NA") {
		return "", sharedErrors.ErrNoOrganization
	}
	return org, nil
}
