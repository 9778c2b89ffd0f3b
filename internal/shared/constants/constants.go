package constants

import "time"

const (
	// ConnectTimeout bounds a single TCP reachability attempt.
	ConnectTimeout = 5 * time.Second
	// TLSHandshakeTimeout bounds handshake-based probes and the certificate tier.
	TLSHandshakeTimeout = 10 * time.Second
	// HTTPTimeout bounds HTTP requests and ALPN sub-checks.
	HTTPTimeout = 5 * time.Second
	// DNSTimeout bounds resolver, WHOIS and IP-intelligence queries.
	DNSTimeout = 5 * time.Second
	// ICMPTimeout bounds a whole echo round.
	ICMPTimeout = 10 * time.Second
	// EvaluationDeadline is the hard deadline the aggregator waits for probes.
	EvaluationDeadline = 30 * time.Second
)

const (
	// PingCount is the number of echo requests sent by the latency probe.
	PingCount = 5
	// PingInterval spaces echo requests inside one round.
	PingInterval = 200 * time.Millisecond
	// MinAcceptableRating is the lowest latency rating that still counts as positive.
	MinAcceptableRating = 4
)

// DefaultCandidatePorts are tried in order when the target carries no port.
var DefaultCandidatePorts = []int{443, 80}

const (
	// DefaultWhoisServer answers verbose origin-AS queries.
	DefaultWhoisServer = "whois.cymru.com:43"
	// DefaultIPInfoURL is formatted with the IP address.
	DefaultIPInfoURL = "https://ipinfo.io/%s/json"
	// DefaultIPInfoRate caps IP-intelligence requests per second.
	DefaultIPInfoRate = 1
	// DefaultFallbackNameserver is used when resolv.conf cannot be read.
	DefaultFallbackNameserver = "1.1.1.1:53"
	// ResponseSnippetLimit caps bytes read from any HTTP body.
	ResponseSnippetLimit = 64 * 1024
)
