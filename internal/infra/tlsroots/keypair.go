package tlsroots

import (
	"crypto/tls"
	"fmt"
	"sync/atomic"
)

// KeyPair holds a server certificate loaded from a cert and key file.
type KeyPair struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
}

// LoadKeyPair loads the certificate and key.
func LoadKeyPair(certFile, keyFile string) (*KeyPair, error) {
	k := &KeyPair{certFile: certFile, keyFile: keyFile}
	if err := k.Reload(); err != nil {
		return nil, err
	}
	return k, nil
}

// Reload reads both files again. On failure the previous certificate stays
// in use.
func (k *KeyPair) Reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	k.cert.Store(&cert)
	return nil
}

// Files returns the certificate and key paths.
func (k *KeyPair) Files() []string {
	return []string{k.certFile, k.keyFile}
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return k.cert.Load(), nil
}

// ServerConfig returns a server TLS config presenting the current
// certificate.
func (k *KeyPair) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: k.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}
