package handshake

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/bunq/httpsig"
	"github.com/vitalvas/bunq/keys"
	"github.com/vitalvas/bunq/sandbox"
	"github.com/vitalvas/bunq/session"
	"github.com/vitalvas/bunq/transport"
)

var (
	keysOnce   sync.Once
	clientKeys *keys.KeyPair
	serverKeys *keys.KeyPair
)

func testKeys(t *testing.T) (*keys.KeyPair, *keys.KeyPair) {
	t.Helper()

	keysOnce.Do(func() {
		var err error

		clientKeys, err = keys.Generate()
		require.NoError(t, err)

		serverKeys, err = keys.Generate()
		require.NoError(t, err)
	})

	return clientKeys, serverKeys
}

type fixture struct {
	sandbox *sandbox.Server
	machine *Machine
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, cfg sandbox.Config) *fixture {
	t.Helper()

	client, server := testKeys(t)
	cfg.Keys = server

	sb, err := sandbox.New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(sb)
	t.Cleanup(ts.Close)

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tc, err := transport.New(transport.Config{
		BaseURL:   ts.URL + sandbox.BasePath,
		UserAgent: "handshake-test",
		Signer:    client,
		Logger:    log,
	})
	require.NoError(t, err)

	return &fixture{
		sandbox: sb,
		machine: NewMachine(client, NewHTTPRemote(tc, log), log),
		logs:    &logs,
	}
}

func TestHTTPRemoteEnsureLive(t *testing.T) {
	f := newFixture(t, sandbox.Config{APIKey: "api-key-123", OwnerID: 42})

	got, err := f.machine.EnsureLive(context.Background(), session.Context{}, "api-key-123", "test-device")
	require.NoError(t, err)

	assert.True(t, got.IsLive())
	assert.Equal(t, f.sandbox.PublicKeyPEM(), got.ServerPublicKey)
	assert.Equal(t, int64(42), got.OwnerID)
	assert.NotEmpty(t, got.DeviceID)

	stats := f.sandbox.Stats()
	assert.Equal(t, 1, stats.Installations)
	assert.Equal(t, 1, stats.Registrations)
	assert.Equal(t, 1, stats.Sessions)

	logs := f.logs.String()
	assert.NotContains(t, logs, got.SessionToken)
	assert.NotContains(t, logs, got.InstallationToken)
	assert.NotContains(t, logs, "api-key-123")

	again, err := f.machine.EnsureLive(context.Background(), got, "api-key-123", "test-device")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, stats, f.sandbox.Stats())
}

func TestHTTPRemoteOwnerTypes(t *testing.T) {
	for _, userType := range OwnerKeys {
		t.Run(userType, func(t *testing.T) {
			f := newFixture(t, sandbox.Config{OwnerID: 7, UserType: userType})

			got, err := f.machine.EnsureLive(context.Background(), session.Context{}, "k", "d")
			require.NoError(t, err)
			assert.Equal(t, int64(7), got.OwnerID)
		})
	}

	t.Run("unknown user type", func(t *testing.T) {
		f := newFixture(t, sandbox.Config{UserType: "UserLight"})

		got, err := f.machine.EnsureLive(context.Background(), session.Context{}, "k", "d")
		assert.ErrorIs(t, err, ErrSessionCreation)
		assert.ErrorIs(t, err, transport.ErrUnexpectedResponse)
		assert.Equal(t, session.StateRegistered, got.State())
	})
}

func TestHTTPRemoteWrongAPIKey(t *testing.T) {
	f := newFixture(t, sandbox.Config{APIKey: "api-key-123"})

	got, err := f.machine.EnsureLive(context.Background(), session.Context{}, "wrong", "d")
	assert.ErrorIs(t, err, ErrRegistration)
	assert.True(t, IsRemoteError(err))
	assert.ErrorContains(t, err, "User credentials are incorrect")
	assert.Equal(t, session.StateInstalled, got.State())
}

func TestHTTPRemoteTrustOnFirstUse(t *testing.T) {
	t.Run("unsigned installation is accepted with a warning", func(t *testing.T) {
		f := newFixture(t, sandbox.Config{})
		f.sandbox.SetFaults(sandbox.Faults{UnsignedInstallation: true})

		got, err := f.machine.Install(context.Background(), session.Context{})
		require.NoError(t, err)
		assert.True(t, got.IsInstalled())
		assert.Contains(t, f.logs.String(), "trusting server key on first use")
	})

	t.Run("tampered installation is rejected", func(t *testing.T) {
		f := newFixture(t, sandbox.Config{})
		f.sandbox.SetFaults(sandbox.Faults{TamperResponses: true})

		got, err := f.machine.Install(context.Background(), session.Context{})
		assert.ErrorIs(t, err, ErrInstallation)
		assert.ErrorIs(t, err, httpsig.ErrSignatureMismatch)
		assert.Equal(t, session.Context{}, got)
	})
}

func TestHTTPRemoteIntegrityFailure(t *testing.T) {
	f := newFixture(t, sandbox.Config{})
	ctx := context.Background()

	inst, err := f.machine.Install(ctx, session.Context{})
	require.NoError(t, err)

	f.sandbox.SetFaults(sandbox.Faults{TamperResponses: true})

	got, err := f.machine.Register(ctx, inst, "k", "d")
	assert.ErrorIs(t, err, ErrRegistration)
	assert.ErrorIs(t, err, httpsig.ErrSignatureMismatch)
	assert.Equal(t, inst, got)
	assert.Contains(t, f.logs.String(), "response failed integrity check")
}

func TestHTTPRemoteUnknownInstallation(t *testing.T) {
	f := newFixture(t, sandbox.Config{})
	_, server := testKeys(t)

	forged := session.Context{InstallationToken: "forged", ServerPublicKey: server.PublicKeyPEM()}

	got, err := f.machine.Register(context.Background(), forged, "k", "d")
	assert.ErrorIs(t, err, ErrRegistration)
	assert.True(t, IsRemoteError(err))
	assert.Equal(t, forged, got)
}

func TestHTTPRemoteWrongServerKey(t *testing.T) {
	f := newFixture(t, sandbox.Config{})
	client, _ := testKeys(t)
	ctx := context.Background()

	inst, err := f.machine.Install(ctx, session.Context{})
	require.NoError(t, err)

	// pin a key the sandbox does not sign with
	inst.ServerPublicKey = client.PublicKeyPEM()

	_, err = f.machine.Register(ctx, inst, "k", "d")
	assert.ErrorIs(t, err, httpsig.ErrSignatureMismatch)
}

func TestHTTPRemoteRejectsUnsignedRequests(t *testing.T) {
	f := newFixture(t, sandbox.Config{})
	ctx := context.Background()

	inst, err := f.machine.Install(ctx, session.Context{})
	require.NoError(t, err)

	_, server := testKeys(t)

	// a transport signing with the wrong key
	tc, err := transport.New(transport.Config{
		BaseURL: mustBaseURL(t, f),
		Signer:  server,
	})
	require.NoError(t, err)

	res, err := transport.SendWithToken[transport.Items](ctx, tc, transport.Request{
		Method: http.MethodPost,
		Path:   PathDeviceServer,
		Body:   map[string]any{"description": "d", "secret": "k", "permitted_ips": []string{}},
	}, inst.InstallationToken, inst.ServerPublicKey)
	require.NoError(t, err)
	require.False(t, res.IsSuccess())
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func mustBaseURL(t *testing.T, f *fixture) string {
	t.Helper()

	remote, ok := f.machine.Remote.(*HTTPRemote)
	require.True(t, ok)

	return remote.client.BaseURL()
}

func newStubMachine(t *testing.T, handler http.HandlerFunc) *Machine {
	t.Helper()

	client, _ := testKeys(t)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	tc, err := transport.New(transport.Config{BaseURL: ts.URL, Signer: client})
	require.NoError(t, err)

	return NewMachine(client, NewHTTPRemote(tc, nil), nil)
}

func TestHTTPRemoteMalformedResponses(t *testing.T) {
	ctx := context.Background()
	_, server := testKeys(t)

	t.Run("installation with invalid server key", func(t *testing.T) {
		m := newStubMachine(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Response":[{"Id":{"id":1}},{"Token":{"token":"it1"}},{"ServerPublicKey":{"server_public_key":"not a pem"}}]}`))
		})

		got, err := m.Install(ctx, session.Context{})
		assert.ErrorIs(t, err, ErrInstallation)
		assert.ErrorIs(t, err, httpsig.ErrInvalidKey)
		assert.Equal(t, session.Context{}, got)
	})

	t.Run("registration without device id", func(t *testing.T) {
		m := newStubMachine(t, func(w http.ResponseWriter, _ *http.Request) {
			require.NoError(t, httpsig.WriteSigned(w, http.StatusOK, []byte(`{"Response":[{"Id":{}}]}`), server))
		})

		inst := session.Context{InstallationToken: "it1", ServerPublicKey: server.PublicKeyPEM()}

		got, err := m.Register(ctx, inst, "k", "d")
		assert.ErrorIs(t, err, ErrRegistration)
		assert.ErrorIs(t, err, transport.ErrUnexpectedResponse)
		assert.Equal(t, inst, got)
	})
}
