package keys

import (
	"crypto"
	"crypto/rsa"
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/vitalvas/bunq/httpsig"
)

// Thumbprint returns the first 16 hex characters of the SHA-256 JWK
// thumbprint of pub.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: rsa public key must not be nil", httpsig.ErrInvalidKey)
	}

	key, err := jwk.Import(pub)
	if err != nil {
		return "", fmt.Errorf("failed to import key: %w", err)
	}

	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to generate thumbprint: %w", err)
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}

// MarshalJWK encodes the private key as a JWK set holding a single RS256
// signing key whose key ID is the fingerprint.
func (k *KeyPair) MarshalJWK() ([]byte, error) {
	key, err := jwk.Import(k.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from RSA private key: %w", err)
	}

	if err := key.Set(jwk.KeyIDKey, k.fingerprint); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("failed to add key to set: %w", err)
	}

	return json.MarshalIndent(set, "", "  ")
}

// ParseJWK decodes a JWK set (or a single JWK) holding an RSA private key.
func ParseJWK(data []byte) (*KeyPair, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse JWK set: %w", httpsig.ErrInvalidKey, err)
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: JWK set is empty", httpsig.ErrInvalidKey)
	}

	key, ok := set.Key(0)
	if !ok {
		return nil, fmt.Errorf("%w: failed to get key from JWK set", httpsig.ErrInvalidKey)
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to export key: %w", httpsig.ErrInvalidKey, err)
	}

	priv, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected RSA private key, got %T", httpsig.ErrInvalidKey, raw)
	}

	return FromPrivateKey(priv)
}
