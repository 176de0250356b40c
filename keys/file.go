package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// isJWKPath reports whether path should hold a JWK set rather than PEM.
func isJWKPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jwk", ".json":
		return true
	default:
		return false
	}
}

// SaveFile writes the private key to path with mode 0600. The file is
// written to a temporary file first and renamed into place.
func (k *KeyPair) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)

	if isJWKPath(path) {
		data, err = k.MarshalJWK()
	} else {
		data, err = k.MarshalPrivateKeyPEM()
	}

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// LoadFile reads a key pair written by SaveFile.
func LoadFile(path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	if isJWKPath(path) {
		return ParseJWK(data)
	}

	return ParsePrivateKeyPEM(data)
}

// LoadOrGenerate loads the key pair at path or, when the file does not exist,
// generates a new one and saves it there. The boolean reports whether a new
// key was generated.
func LoadOrGenerate(path string) (*KeyPair, bool, error) {
	kp, err := LoadFile(path)
	if err == nil {
		return kp, false, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	kp, err = Generate()
	if err != nil {
		return nil, false, err
	}

	if err := kp.SaveFile(path); err != nil {
		return nil, false, err
	}

	return kp, true, nil
}
