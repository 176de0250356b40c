package httpsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Minimum RSA key size in bits.
const MinRSAKeyBits = 2048

type rsaV15Signer struct {
	key *rsa.PrivateKey
}

// NewRSAv15Signer creates a Signer using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSAv15Signer(key *rsa.PrivateKey) (Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, MinRSAKeyBits)
	}

	return &rsaV15Signer{key: key}, nil
}

func (s *rsaV15Signer) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)

	return rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
}

func (s *rsaV15Signer) Algorithm() Algorithm { return AlgorithmRSAv15SHA256 }

type rsaV15Verifier struct {
	key *rsa.PublicKey
}

// NewRSAv15Verifier creates a Verifier using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSAv15Verifier(key *rsa.PublicKey) (Verifier, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, MinRSAKeyBits)
	}

	return &rsaV15Verifier{key: key}, nil
}

func (v *rsaV15Verifier) Verify(message, signature []byte) error {
	digest := sha256.Sum256(message)

	if err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], signature); err != nil {
		return ErrSignatureMismatch
	}

	return nil
}

func (v *rsaV15Verifier) Algorithm() Algorithm { return AlgorithmRSAv15SHA256 }

// NewVerifierFromPEM parses an RSA public key in PEM form and returns a
// Verifier for it.
func NewVerifierFromPEM(publicKeyPEM string) (Verifier, error) {
	key, err := ParsePublicKeyPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	return NewRSAv15Verifier(key)
}

// ParsePublicKeyPEM decodes an RSA public key. Both "PUBLIC KEY"
// (SubjectPublicKeyInfo) and "RSA PUBLIC KEY" (PKCS#1) blocks are accepted.
func ParsePublicKeyPEM(publicKeyPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}

		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected RSA public key, got %T", ErrInvalidKey, parsed)
		}

		return key, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}

		return key, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrInvalidKey, block.Type)
	}
}

// MarshalPublicKeyPEM encodes an RSA public key as a "PUBLIC KEY" PEM block.
func MarshalPublicKeyPEM(key *rsa.PublicKey) (string, error) {
	if key == nil {
		return "", fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
