// Package signing implements Stage 4 of the vetting pipeline (RSA-PKCS#1
// v1.5 detached signatures over artifact digests) and the installer-side
// verification of those signatures against a trust anchor and revocation
// store.
package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Signer produces a detached RSA-PKCS#1 v1.5 / SHA-256 signature over a
// raw digest (the already hex-decoded 32 bytes of a SHA-256 sum, never the
// tarball contents or the hex string itself).
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner constructs a Signer from a PEM-encoded PKCS#8 RSA private key,
// the format the secret store returns under the CA secret's "private_key"
// field.
func NewSigner(pemBytes []byte) (*Signer, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("parsing RSA private key PEM: no PEM block found")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing RSA private key PEM: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("parsing RSA private key PEM: not an RSA key")
	}
	return &Signer{key: key}, nil
}

// Sign signs the raw digest bytes (not a re-hash of them) with RSA-PKCS#1
// v1.5 over SHA-256, using crypto/rand as the source of blinding
// randomness.
func (s *Signer) Sign(digest [32]byte) ([]byte, error) {
	return rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
}

// PublicKey returns the signer's public key, e.g. for embedding in a trust
// anchor used by tests.
func (s *Signer) PublicKey() *rsa.PublicKey {
	return &s.key.PublicKey
}
