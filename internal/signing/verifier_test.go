package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

type testCA struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
	pem  []byte
}

func makeCert(t *testing.T, cn string, serial int64, parent *testCA, isCA bool) *testCA {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  isCA,
	}

	parentCert := tmpl
	parentKey := key
	if parent != nil {
		parentCert = parent.cert
		parentKey = parent.key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parentCert, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return &testCA{cert: cert, key: key, pem: pemBytes}
}

func TestVerifyRegistrySignedEmptyChain(t *testing.T) {
	root := makeCert(t, "skreg root CA", 1, nil, true)
	intermediate := makeCert(t, "skreg registry intermediate", 2, root, true)

	v, err := NewVerifier(root.pem, intermediate.pem, NewInMemoryRevocationStore())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	digest := sha256.Sum256([]byte("artifact bytes"))
	signer := &Signer{key: intermediate.key}
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	got, err := v.Verify(digest, sig, nil)
	if err != nil {
		t.Fatalf("expected verification to succeed: %v", err)
	}
	if got.CertSerial != nil {
		t.Fatalf("expected nil CertSerial for registry-signed package, got %v", got.CertSerial)
	}
}

func TestVerifyRevokedRegistryIntermediateFails(t *testing.T) {
	root := makeCert(t, "skreg root CA", 1, nil, true)
	intermediate := makeCert(t, "skreg registry intermediate", 2, root, true)

	revocation := NewInMemoryRevocationStore()
	revocation.Revoke(2)

	v, err := NewVerifier(root.pem, intermediate.pem, revocation)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	digest := sha256.Sum256([]byte("artifact bytes"))
	signer := &Signer{key: intermediate.key}
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := v.Verify(digest, sig, nil); err == nil {
		t.Fatal("expected revoked registry intermediate to fail verification")
	}
}

func TestVerifyPublisherSignedChain(t *testing.T) {
	root := makeCert(t, "skreg root CA", 1, nil, true)
	intermediate := makeCert(t, "skreg registry intermediate", 2, root, true)
	leaf := makeCert(t, "acme publisher", 42, intermediate, false)

	v, err := NewVerifier(root.pem, intermediate.pem, NewInMemoryRevocationStore())
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	digest := sha256.Sum256([]byte("artifact bytes"))
	signer := &Signer{key: leaf.key}
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	chain := []string{string(leaf.pem), string(intermediate.pem)}
	got, err := v.Verify(digest, sig, chain)
	if err != nil {
		t.Fatalf("expected verification to succeed: %v", err)
	}
	if got.CertSerial == nil || *got.CertSerial != 42 {
		t.Fatalf("expected leaf serial 42, got %v", got.CertSerial)
	}
}

func TestVerifyRevokedCertificateFails(t *testing.T) {
	root := makeCert(t, "skreg root CA", 1, nil, true)
	intermediate := makeCert(t, "skreg registry intermediate", 2, root, true)
	leaf := makeCert(t, "acme publisher", 42, intermediate, false)

	revocation := NewInMemoryRevocationStore()
	revocation.Revoke(42)

	v, err := NewVerifier(root.pem, intermediate.pem, revocation)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	digest := sha256.Sum256([]byte("artifact bytes"))
	signer := &Signer{key: leaf.key}
	sig, err := signer.Sign(digest)
	if err != nil {
		t.Fatal(err)
	}

	chain := []string{string(leaf.pem), string(intermediate.pem)}
	if _, err := v.Verify(digest, sig, chain); err == nil {
		t.Fatal("expected revoked certificate to fail verification")
	}
}
