// Package network implements the network capabilities consumed by the probes:
// TLS handshakes with forced versions and ALPN, HTTP requests with HTTP/2
// preference, A/TXT resolution over miekg/dns, origin-AS lookups over WHOIS or
// DNS, IP-intelligence JSON lookups and ICMP echo rounds.
//
// Every call takes a context and applies its own timeout so a caller can bound
// a single operation without affecting others.
package network
