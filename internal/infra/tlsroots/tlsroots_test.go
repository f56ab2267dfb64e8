package tlsroots

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeCert writes a self-signed certificate for cn and its key into dir.
func writeCert(t *testing.T, dir, cn string) (certFile, keyFile string, cert *x509.Certificate) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		DNSNames:              []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	cert, err = x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey() error = %v", err)
	}

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return certFile, keyFile, cert
}

func TestPool_AddCertFile(t *testing.T) {
	certFile, keyFile, cert := writeCert(t, t.TempDir(), "bot-api.internal")

	p := NewEmptyPool()
	if err := p.AddCertFile(certFile); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}
	if _, err := cert.Verify(x509.VerifyOptions{Roots: p.CertPool(), DNSName: "bot-api.internal"}); err != nil {
		t.Errorf("certificate not trusted by pool: %v", err)
	}
	if cfg := p.ClientConfig(); cfg.RootCAs != p.CertPool() {
		t.Error("ClientConfig() does not use the pool")
	}

	if err := p.AddCertFile(keyFile); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertFile(key) error = %v, want %v", err, ErrNoCertsFound)
	}
	if err := p.AddCertFile(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddCertFile(missing) succeeded, want error")
	}
}

func TestPool_AddCertPEM(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "empty", data: nil, wantErr: true},
		{name: "garbage", data: []byte("not pem"), wantErr: true},
		{name: "bad certificate", data: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}}), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEmptyPool().AddCertPEM(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("AddCertPEM() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPool(t *testing.T) {
	certFile, _, _ := writeCert(t, t.TempDir(), "ca.internal")
	if _, err := NewPool(certFile); err != nil {
		t.Errorf("NewPool() error = %v", err)
	}
	if _, err := NewPool(filepath.Join(t.TempDir(), "nope.pem")); err == nil {
		t.Error("NewPool(missing) succeeded, want error")
	}
}

func TestKeyPair_Reload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile, first := writeCert(t, dir, "one.example")

	k, err := LoadKeyPair(certFile, keyFile)
	if err != nil {
		t.Fatalf("LoadKeyPair() error = %v", err)
	}
	leaf := func() *x509.Certificate {
		t.Helper()
		c, err := k.ServerConfig().GetCertificate(nil)
		if err != nil || c == nil {
			t.Fatalf("GetCertificate() = %v, %v", c, err)
		}
		parsed, err := x509.ParseCertificate(c.Certificate[0])
		if err != nil {
			t.Fatalf("ParseCertificate() error = %v", err)
		}
		return parsed
	}
	if got := leaf().Subject.CommonName; got != first.Subject.CommonName {
		t.Fatalf("CommonName = %q, want %q", got, first.Subject.CommonName)
	}

	writeCert(t, dir, "two.example")
	if err := k.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := leaf().Subject.CommonName; got != "two.example" {
		t.Errorf("CommonName after reload = %q, want two.example", got)
	}

	if err := os.WriteFile(keyFile, []byte("broken"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := k.Reload(); err == nil {
		t.Error("Reload() with a broken key succeeded, want error")
	}
	if got := leaf().Subject.CommonName; got != "two.example" {
		t.Errorf("CommonName after failed reload = %q, want the previous certificate", got)
	}
	if got := k.Files(); len(got) != 2 || got[0] != certFile || got[1] != keyFile {
		t.Errorf("Files() = %v", got)
	}
}

func TestLoadKeyPair_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadKeyPair(filepath.Join(dir, "a.crt"), filepath.Join(dir, "a.key")); err == nil {
		t.Error("LoadKeyPair() succeeded, want error")
	}
}
