package sandbox

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/keys"
)

var (
	keyOnce   sync.Once
	serverKey *keys.KeyPair
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	keyOnce.Do(func() {
		kp, err := keys.Generate()
		require.NoError(t, err)
		serverKey = kp
	})

	s, err := New(Config{Keys: serverKey})
	require.NoError(t, err)

	return s
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	return w
}

func assertSigned(t *testing.T, s *Server, w *httptest.ResponseRecorder) {
	t.Helper()

	ok, err := httpsig.Verify(w.Body.Bytes(), w.Header().Get(httpsig.HeaderServerSignature), s.PublicKeyPEM())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewDefaults(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, int64(DefaultOwnerID), s.cfg.OwnerID)
	assert.Equal(t, DefaultDisplayName, s.cfg.DisplayName)
	assert.Equal(t, DefaultUserType, s.cfg.UserType)
}

func TestInstallation(t *testing.T) {
	s := newTestServer(t)

	t.Run("invalid key", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/v1/installation", `{"client_public_key":"PUBKEY"}`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Client public key is invalid.")
		assertSigned(t, s, w)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/v1/installation", `{"key":"x"}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		body := `{"client_public_key":` + quote(serverKey.PublicKeyPEM()) + `}`
		w := do(t, s, http.MethodPost, "/v1/installation", body, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ServerPublicKey"`)
		assertSigned(t, s, w)
		assert.Equal(t, 1, s.Stats().Installations)
	})
}

func TestAuthenticatedEndpoints(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/v1/device-server", `{"description":"d","secret":"k","permitted_ips":[]}`},
		{http.MethodPost, "/v1/session-server", `{"secret":"k"}`},
		{http.MethodGet, "/v1/user", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, s, tt.method, tt.path, tt.body, map[string]string{
				httpsig.HeaderClientAuthentication: "unknown",
			})

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Insufficient authorisation.")
			assertSigned(t, s, w)
		})
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/v1/user", "", map[string]string{httpsig.HeaderClientRequestID: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(httpsig.HeaderClientRequestID))

	w = do(t, s, http.MethodGet, "/v1/user", "", nil)
	assert.NotEmpty(t, w.Header().Get(httpsig.HeaderClientRequestID))
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t)

	h := s.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error.")
	assertSigned(t, s, w)
}

func TestTamperBody(t *testing.T) {
	assert.Equal(t, `{"id":2}`, string(tamperBody([]byte(`{"id":1}`))))
	assert.Equal(t, `{"id":0}`, string(tamperBody([]byte(`{"id":9}`))))
	assert.Equal(t, `{}|`, string(tamperBody([]byte(`{}}`))))
	assert.Empty(t, tamperBody(nil))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, "\n", `\n`) + `"`
}
