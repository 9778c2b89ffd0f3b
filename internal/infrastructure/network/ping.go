package network

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
	replyWait        = time.Second
)

// AddrResolver is satisfied by *Resolver.
type AddrResolver interface {
	LookupA(ctx context.Context, host string) (netip.Addr, error)
}

// PingStats summarizes one echo round.
type PingStats struct {
	Addr     netip.Addr
	Sent     int
	Received int
	RTTs     []time.Duration
	Average  time.Duration
}

// Pinger sends ICMP echo requests. It prefers unprivileged datagram ICMP
// sockets and falls back to raw sockets when those are unavailable.
type Pinger struct {
	Resolver AddrResolver
	Interval time.Duration
}

type echoSocket struct {
	conn     *icmp.PacketConn
	dst      net.Addr
	proto    int
	echoType icmp.Type
	reply    icmp.Type
	// datagram sockets get their echo ID rewritten by the kernel
	datagram bool
}

// Ping sends count echo requests to host and returns RTT statistics. A round
// without any reply returns ErrNoReplies alongside the partial stats.
func (p *Pinger) Ping(ctx context.Context, host string, count int) (PingStats, error) {
	if count <= 0 {
		count = consts.PingCount
	}
	interval := p.Interval
	if interval <= 0 {
		interval = consts.PingInterval
	}

	addr, err := p.resolve(ctx, host)
	if err != nil {
		return PingStats{}, err
	}
	stats := PingStats{Addr: addr}

	sock, err := openEchoSocket(addr)
	if err != nil {
		return stats, err
	}
	defer sock.conn.Close()

	id := int(rand.Uint32() & 0xffff)
	payload := make([]byte, 16)
	for i := range payload {
		payload[i] = byte(rand.Uint32())
	}

	for seq := 1; seq <= count; seq++ {
		if ctx.Err() != nil {
			break
		}
		rtt, err := sock.roundTrip(ctx, id, seq, payload)
		stats.Sent++
		if err == nil {
			stats.Received++
			stats.RTTs = append(stats.RTTs, rtt)
		} else if errors.Is(err, errSend) {
			return stats, err
		}
		if seq < count {
			select {
			case <-ctx.Done():
			case <-time.After(interval):
			}
		}
	}

	if stats.Received == 0 {
		return stats, fmt.Errorf("%w from %s", sharedErrors.ErrNoReplies, addr)
	}
	var total time.Duration
	for _, rtt := range stats.RTTs {
		total += rtt
	}
	stats.Average = total / time.Duration(len(stats.RTTs))
	return stats, nil
}

func (p *Pinger) resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	if p.Resolver != nil {
		return p.Resolver.LookupA(ctx, host)
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return netip.Addr{}, err
	}
	if len(addrs) == 0 {
		return netip.Addr{}, fmt.Errorf("%w for %s", sharedErrors.ErrNoARecord, host)
	}
	return addrs[0], nil
}

func openEchoSocket(addr netip.Addr) (*echoSocket, error) {
	if addr.Is4() || addr.Is4In6() {
		ip := net.IP(addr.Unmap().AsSlice())
		v4 := echoSocket{proto: protocolICMP, echoType: ipv4.ICMPTypeEcho, reply: ipv4.ICMPTypeEchoReply}
		if conn, err := icmp.ListenPacket("udp4", "0.0.0.0"); err == nil {
			v4.conn, v4.dst, v4.datagram = conn, &net.UDPAddr{IP: ip}, true
			return &v4, nil
		}
		conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
		if err != nil {
			return nil, fmt.Errorf("open icmp socket: %w", err)
		}
		v4.conn, v4.dst = conn, &net.IPAddr{IP: ip}
		return &v4, nil
	}

	ip := net.IP(addr.AsSlice())
	v6 := echoSocket{proto: protocolIPv6ICMP, echoType: ipv6.ICMPTypeEchoRequest, reply: ipv6.ICMPTypeEchoReply}
	if conn, err := icmp.ListenPacket("udp6", "::"); err == nil {
		v6.conn, v6.dst, v6.datagram = conn, &net.UDPAddr{IP: ip, Zone: addr.Zone()}, true
		return &v6, nil
	}
	conn, err := icmp.ListenPacket("ip6:ipv6-icmp", "::")
	if err != nil {
		return nil, fmt.Errorf("open icmpv6 socket: %w", err)
	}
	v6.conn, v6.dst = conn, &net.IPAddr{IP: ip, Zone: addr.Zone()}
	return &v6, nil
}

var errSend = errors.New("send echo request")

func (s *echoSocket) roundTrip(ctx context.Context, id, seq int, payload []byte) (time.Duration, error) {
	msg := icmp.Message{
		Type: s.echoType,
		Body: &icmp.Echo{ID: id, Seq: seq, Data: payload},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errSend, err)
	}

	deadline := time.Now().Add(replyWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := s.conn.WriteTo(wire, s.dst); err != nil {
		return 0, fmt.Errorf("%w: %v", errSend, err)
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			return 0, err
		}
		rtt := time.Since(start)
		reply, err := icmp.ParseMessage(s.proto, buf[:n])
		if err != nil || reply.Type != s.reply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.Seq != seq || !bytes.Equal(echo.Data, payload) {
			continue
		}
		if !s.datagram && echo.ID != id {
			continue
		}
		return rtt, nil
	}
}
