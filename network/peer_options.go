package network

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"time"
)

// PeerOption configures a Peer before it starts serving.
type PeerOption func(*Peer)

// WithTimeout bounds how long an exchange waits for the other members.
// Zero, the default, waits forever.
func WithTimeout(timeout time.Duration) PeerOption {
	return func(p *Peer) {
		p.timeout = timeout
	}
}

// WithLogger sets the logger used for transport failures.
func WithLogger(logger *slog.Logger) PeerOption {
	return func(p *Peer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCertificate serves and dials over TLS using cert.
func WithCertificate(cert tls.Certificate) PeerOption {
	return func(p *Peer) {
		if p.tlsConfig == nil {
			p.tlsConfig = &tls.Config{}
		}
		p.tlsConfig.Certificates = append(p.tlsConfig.Certificates, cert)
		p.client.Transport = &http.Transport{
			TLSClientConfig: p.tlsConfig,
		}
		p.scheme = "https://"
	}
}

// WithLimitedCAs only trusts members whose certificates are in certPool,
// in both directions.
func WithLimitedCAs(certPool *x509.CertPool) PeerOption {
	return func(p *Peer) {
		if p.tlsConfig == nil {
			p.tlsConfig = &tls.Config{}
		}
		p.tlsConfig.RootCAs = certPool
		p.tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		p.tlsConfig.ClientCAs = certPool
		p.client.Transport = &http.Transport{
			TLSClientConfig: p.tlsConfig,
		}
		p.scheme = "https://"
	}
}
