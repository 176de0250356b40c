package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vitalvas/bunq/httpsig"
)

// DefaultBits is the RSA modulus size used by Generate.
const DefaultBits = 2048

// ErrKeyGeneration is returned when the platform cannot produce a key.
var ErrKeyGeneration = errors.New("keys: key generation failed")

var rsaGenerateKey = rsa.GenerateKey

// KeyPair holds the client RSA key pair.
type KeyPair struct {
	priv        *rsa.PrivateKey
	signer      httpsig.Signer
	pubPEM      string
	fingerprint string
}

// Generate produces a fresh 2048-bit key pair.
func Generate() (*KeyPair, error) {
	return GenerateBits(DefaultBits)
}

// GenerateBits produces a fresh key pair with the given modulus size.
// Sizes below httpsig.MinRSAKeyBits are rejected with httpsig.ErrInvalidKey.
func GenerateBits(bits int) (*KeyPair, error) {
	return GenerateFrom(rand.Reader, bits)
}

// GenerateFrom is GenerateBits with an explicit entropy source.
func GenerateFrom(random io.Reader, bits int) (*KeyPair, error) {
	if bits < httpsig.MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", httpsig.ErrInvalidKey, httpsig.MinRSAKeyBits)
	}

	priv, err := rsaGenerateKey(random, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}

	return FromPrivateKey(priv)
}

// FromPrivateKey wraps an existing RSA private key.
func FromPrivateKey(priv *rsa.PrivateKey) (*KeyPair, error) {
	signer, err := httpsig.NewRSAv15Signer(priv)
	if err != nil {
		return nil, err
	}

	pubPEM, err := httpsig.MarshalPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	fingerprint, err := Thumbprint(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{priv: priv, signer: signer, pubPEM: pubPEM, fingerprint: fingerprint}, nil
}

// PublicKeyPEM returns the public half as a "PUBLIC KEY" PEM block, the
// format expected by the installation endpoint.
func (k *KeyPair) PublicKeyPEM() string {
	return k.pubPEM
}

// PublicKey returns the RSA public key.
func (k *KeyPair) PublicKey() *rsa.PublicKey {
	return &k.priv.PublicKey
}

// Fingerprint returns the first 16 hex characters of the RFC 7638 SHA-256
// thumbprint of the public key.
func (k *KeyPair) Fingerprint() string {
	return k.fingerprint
}

// Sign signs message with RSASSA-PKCS1-v1_5 and SHA-256.
func (k *KeyPair) Sign(message []byte) ([]byte, error) {
	return k.signer.Sign(message)
}

// Algorithm implements httpsig.Signer.
func (k *KeyPair) Algorithm() httpsig.Algorithm {
	return k.signer.Algorithm()
}

// Verifier returns a verifier for signatures made by this key pair.
func (k *KeyPair) Verifier() (httpsig.Verifier, error) {
	return httpsig.NewRSAv15Verifier(&k.priv.PublicKey)
}

// String never includes key material.
func (k *KeyPair) String() string {
	return fmt.Sprintf("rsa-%d(%s)", k.priv.N.BitLen(), k.Fingerprint())
}

// LogValue implements slog.LogValuer so a KeyPair can be logged without
// exposing the private key.
func (k *KeyPair) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("alg", k.Algorithm().String()),
		slog.Int("bits", k.priv.N.BitLen()),
		slog.String("fingerprint", k.Fingerprint()),
	)
}

var _ httpsig.Signer = (*KeyPair)(nil)
