package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/vitalvas/bunq/httpsig"
)

// MarshalPrivateKeyPEM encodes the private key as a PKCS#8 "PRIVATE KEY"
// PEM block.
func (k *KeyPair) MarshalPrivateKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParsePrivateKeyPEM decodes a PKCS#8 ("PRIVATE KEY") or PKCS#1
// ("RSA PRIVATE KEY") PEM block.
func ParsePrivateKeyPEM(data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", httpsig.ErrInvalidKey)
	}

	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS#8 private key: %w", httpsig.ErrInvalidKey, err)
		}

		priv, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is not an RSA private key (%T)", httpsig.ErrInvalidKey, parsed)
		}

		return FromPrivateKey(priv)
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS#1 private key: %w", httpsig.ErrInvalidKey, err)
		}

		return FromPrivateKey(priv)
	default:
		return nil, fmt.Errorf("%w: PEM block is not a private key (type: %s)", httpsig.ErrInvalidKey, block.Type)
	}
}
