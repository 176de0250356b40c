package keys

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/bunq/httpsig"
)

var (
	sharedOnce sync.Once
	shared     *KeyPair
)

func testKeyPair(t *testing.T) *KeyPair {
	t.Helper()

	sharedOnce.Do(func() {
		kp, err := Generate()
		require.NoError(t, err)
		shared = kp
	})

	return shared
}

func TestGenerate(t *testing.T) {
	t.Run("default size", func(t *testing.T) {
		kp := testKeyPair(t)

		assert.Equal(t, DefaultBits, kp.PublicKey().N.BitLen())
		assert.Equal(t, httpsig.AlgorithmRSAv15SHA256, kp.Algorithm())
		assert.Len(t, kp.Fingerprint(), 16)
	})

	t.Run("too small is rejected", func(t *testing.T) {
		_, err := GenerateBits(1024)
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
	})

	t.Run("entropy failure", func(t *testing.T) {
		orig := rsaGenerateKey
		t.Cleanup(func() { rsaGenerateKey = orig })

		rsaGenerateKey = func(io.Reader, int) (*rsa.PrivateKey, error) {
			return nil, errors.New("no entropy")
		}

		kp, err := Generate()
		assert.ErrorIs(t, err, ErrKeyGeneration)
		assert.ErrorContains(t, err, "no entropy")
		assert.Nil(t, kp)
	})

	t.Run("explicit entropy source", func(t *testing.T) {
		orig := rsaGenerateKey
		t.Cleanup(func() { rsaGenerateKey = orig })

		src := bytes.NewReader(nil)

		var got io.Reader

		rsaGenerateKey = func(random io.Reader, bits int) (*rsa.PrivateKey, error) {
			got = random
			return orig(rand.Reader, bits)
		}

		kp, err := GenerateFrom(src, DefaultBits)
		require.NoError(t, err)
		assert.Same(t, src, got)
		assert.Equal(t, DefaultBits, kp.PublicKey().N.BitLen())

		_, err = GenerateFrom(src, 512)
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
	})
}

func TestPublicKeyPEM(t *testing.T) {
	kp := testKeyPair(t)

	pemText := kp.PublicKeyPEM()
	assert.True(t, strings.HasPrefix(pemText, "-----BEGIN PUBLIC KEY-----"))
	assert.Equal(t, pemText, kp.PublicKeyPEM())

	parsed, err := httpsig.ParsePublicKeyPEM(pemText)
	require.NoError(t, err)
	assert.True(t, kp.PublicKey().Equal(parsed))
}

func TestSign(t *testing.T) {
	kp := testKeyPair(t)
	body := []byte(`{"secret":"api-key-123"}`)

	sig, err := kp.Sign(body)
	require.NoError(t, err)

	ok, err := httpsig.Verify(body, httpsig.EncodeSignature(sig), kp.PublicKeyPEM())
	require.NoError(t, err)
	assert.True(t, ok)

	verifier, err := kp.Verifier()
	require.NoError(t, err)
	assert.NoError(t, verifier.Verify(body, sig))
}

func TestNoKeyMaterialInLogs(t *testing.T) {
	kp := testKeyPair(t)

	privPEM, err := kp.MarshalPrivateKeyPEM()
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("key loaded", "key", kp)

	out := buf.String()
	assert.Contains(t, out, kp.Fingerprint())
	assert.NotContains(t, out, "PRIVATE KEY")
	assert.NotContains(t, out, kp.priv.D.String())
	assert.NotContains(t, kp.String(), string(privPEM))
}

func TestPrivateKeyPEM(t *testing.T) {
	kp := testKeyPair(t)

	t.Run("round trip", func(t *testing.T) {
		data, err := kp.MarshalPrivateKeyPEM()
		require.NoError(t, err)

		loaded, err := ParsePrivateKeyPEM(data)
		require.NoError(t, err)
		assert.Equal(t, kp.PublicKeyPEM(), loaded.PublicKeyPEM())
		assert.Equal(t, kp.Fingerprint(), loaded.Fingerprint())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParsePrivateKeyPEM([]byte("not pem"))
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
	})

	t.Run("public key block", func(t *testing.T) {
		_, err := ParsePrivateKeyPEM([]byte(kp.PublicKeyPEM()))
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
	})
}

func TestJWK(t *testing.T) {
	kp := testKeyPair(t)

	data, err := kp.MarshalJWK()
	require.NoError(t, err)
	assert.Contains(t, string(data), kp.Fingerprint())
	assert.Contains(t, string(data), "RS256")

	loaded, err := ParseJWK(data)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKeyPEM(), loaded.PublicKeyPEM())

	_, err = ParseJWK([]byte(`{"keys":[]}`))
	assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
}

func TestFiles(t *testing.T) {
	kp := testKeyPair(t)

	for _, name := range []string{"client.pem", "client.jwk", "client.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			require.NoError(t, kp.SaveFile(path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, kp.PublicKeyPEM(), loaded.PublicKeyPEM())
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "missing.pem"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("load or generate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.pem")

		first, created, err := LoadOrGenerate(path)
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := LoadOrGenerate(path)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.PublicKeyPEM(), second.PublicKeyPEM())
	})

	t.Run("load or generate surfaces corrupt files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.pem")
		require.NoError(t, os.WriteFile(path, []byte("junk"), 0o600))

		_, _, err := LoadOrGenerate(path)
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
	})
}
