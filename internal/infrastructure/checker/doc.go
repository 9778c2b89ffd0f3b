// Package checker holds the probes run against an evaluation target.
//
// Every probe implements Probe (Name + Check) and folds its own failures into
// findings, so Check never returns an error. Probes depend only on the small
// capability interfaces declared in capabilities.go; the concrete TLS, HTTP,
// DNS, WHOIS, IP-intelligence and ICMP clients live in
// internal/infrastructure/network.
//
// CDN detection is an ordered chain of CDNTier implementations sharing one
// CDNQuery. The first tier that reports a match stops the chain; tier errors
// are recorded as soft errors and the chain moves on.
package checker
