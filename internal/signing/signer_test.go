package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"testing"
)

func generateTestSigner(t *testing.T) (*Signer, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating test key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	s, err := NewSigner(pemBytes)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s, key
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, key := generateTestSigner(t)
	digest := sha256.Sum256([]byte("tarball bytes"))

	sig, err := s.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if err := rsaVerify(&key.PublicKey, digest, sig); err != nil {
		t.Fatalf("expected valid signature: %v", err)
	}

	flippedDigest := digest
	flippedDigest[0] ^= 0xFF
	if err := rsaVerify(&key.PublicKey, flippedDigest, sig); err == nil {
		t.Fatal("expected verification failure for flipped digest")
	}

	flippedSig := append([]byte(nil), sig...)
	flippedSig[0] ^= 0xFF
	if err := rsaVerify(&key.PublicKey, digest, flippedSig); err == nil {
		t.Fatal("expected verification failure for flipped signature")
	}
}

func rsaVerify(pub *rsa.PublicKey, digest [32]byte, sig []byte) error {
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}
