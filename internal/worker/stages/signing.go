package stages

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/refs"
	"github.com/skillreg/registry/internal/secretstore"
	"github.com/skillreg/registry/internal/signing"
)

// RunSigning loads the CA private key from secrets, signs the artifact's
// raw digest bytes, and uploads the detached signature next to the
// artifact, returning the signature's object-storage key.
func RunSigning(ctx context.Context, sha256Hex, storagePath string, store objectstore.Store, secrets secretstore.Store, caSecretARN string) (string, error) {
	secret, err := secrets.GetCASecret(ctx, caSecretARN)
	if err != nil {
		return "", fmt.Errorf("loading CA private key: %w", err)
	}

	signer, err := signing.NewSigner([]byte(secret.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("parsing RSA private key PEM: %w", err)
	}

	digest, err := refs.ParseDigest(sha256Hex)
	if err != nil {
		return "", fmt.Errorf("parsing sha256 digest: %w", err)
	}

	var digestBytes [32]byte
	if _, err := hex.Decode(digestBytes[:], []byte(string(digest))); err != nil {
		return "", fmt.Errorf("decoding sha256 hex: %w", err)
	}

	sig, err := signer.Sign(digestBytes)
	if err != nil {
		return "", fmt.Errorf("signing digest: %w", err)
	}

	sigPath := objectstore.SignatureKey(storagePath)
	if err := store.Put(ctx, sigPath, sig); err != nil {
		return "", fmt.Errorf("uploading .sig to object storage: %w", err)
	}

	return sigPath, nil
}
