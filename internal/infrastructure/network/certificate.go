package network

import (
	"crypto/tls"
	"strings"
)

// CertificateText returns the issuer, subject and SAN names presented in a
// handshake, one field per line. Chain certificates contribute their subject
// and issuer so intermediates operated by a CDN are visible too.
func CertificateText(state *tls.ConnectionState) string {
	if state == nil || len(state.PeerCertificates) == 0 {
		return ""
	}

	var b strings.Builder
	leaf := state.PeerCertificates[0]
	b.WriteString("subject: " + leaf.Subject.String() + "\n")
	b.WriteString("issuer: " + leaf.Issuer.String() + "\n")
	if len(leaf.DNSNames) > 0 {
		b.WriteString("san: " + strings.Join(leaf.DNSNames, ", ") + "\n")
	}
	for _, cert := range state.PeerCertificates[1:] {
		b.WriteString("chain subject: " + cert.Subject.String() + "\n")
		b.WriteString("chain issuer: " + cert.Issuer.String() + "\n")
	}
	return b.String()
}
