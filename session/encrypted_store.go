package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const sealedFormatVersion = 1

// ErrWrongPassphrase is returned when a sealed context cannot be opened,
// either because the passphrase differs or the file was modified.
var ErrWrongPassphrase = errors.New("session: wrong passphrase or corrupted context")

// sealed is the on-disk JSON structure holding the ciphertext and KDF parameters.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// ScryptParams are the key derivation tunables.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams is used by NewEncryptedFileStore.
var DefaultScryptParams = ScryptParams{N: 1 << 15, R: 8, P: 1}

// MaxScryptParams bounds the cost a sealed file may ask for on Load.
var MaxScryptParams = ScryptParams{N: 1 << 20, R: 16, P: 4}

// ErrScryptParams is returned when a sealed file asks for a key derivation
// cost above MaxScryptParams.
var ErrScryptParams = errors.New("session: sealed scrypt parameters out of range")

// EncryptedFileStore keeps the context sealed with a passphrase-derived key.
// Session and installation tokens are bearer credentials, so this is the
// store to use when the context file lives on a shared disk.
type EncryptedFileStore struct {
	path       string
	passphrase string
	params     ScryptParams
	mu         sync.Mutex
}

// NewEncryptedFileStore seals the context at path with DefaultScryptParams.
func NewEncryptedFileStore(path, passphrase string) *EncryptedFileStore {
	return NewEncryptedFileStoreWithParams(path, passphrase, DefaultScryptParams)
}

// NewEncryptedFileStoreWithParams is NewEncryptedFileStore with explicit
// key derivation cost.
func NewEncryptedFileStoreWithParams(path, passphrase string, params ScryptParams) *EncryptedFileStore {
	return &EncryptedFileStore{path: path, passphrase: passphrase, params: params}
}

// Path returns the file location.
func (s *EncryptedFileStore) Path() string { return s.path }

// Load opens the sealed file. A missing file yields a fresh context; a
// wrong passphrase yields ErrWrongPassphrase.
func (s *EncryptedFileStore) Load(_ context.Context) (Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := readFile(s.path)
	if err != nil {
		return Context{}, err
	}

	if data == nil {
		return Context{}, nil
	}

	raw, err := open(s.passphrase, data)
	if err != nil {
		return Context{}, err
	}

	rec, err := unmarshalRecord(raw, FormatJSON)
	if err != nil {
		return Context{}, err
	}

	return FromRecord(rec)
}

// Save seals c with a fresh salt and writes it atomically.
func (s *EncryptedFileStore) Save(_ context.Context, c Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(c.ToRecord())
	if err != nil {
		return err
	}

	data, err := seal(s.passphrase, raw, s.params)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFile(s.path, data, 0o600)
}

func seal(passphrase string, raw []byte, params ScryptParams) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}

	key, err := scrypt.Key([]byte(passphrase), salt[:], params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	// zero nonce; every seal derives a fresh key from a new salt
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(sealed{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Cipher: ct,
	})
}

func open(passphrase string, data []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
	}

	if s.V > sealedFormatVersion {
		return nil, fmt.Errorf("session: unsupported sealed format version %d", s.V)
	}

	if s.N > MaxScryptParams.N || s.R > MaxScryptParams.R || s.P > MaxScryptParams.P {
		return nil, fmt.Errorf("%w: N=%d r=%d p=%d", ErrScryptParams, s.N, s.R, s.P)
	}

	key, err := scrypt.Key([]byte(passphrase), s.Salt, s.N, s.R, s.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	var nonce [chacha20poly1305.NonceSize]byte

	pt, err := aead.Open(nil, nonce[:], s.Cipher, s.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	return pt, nil
}

var _ Store = (*EncryptedFileStore)(nil)
