package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/bunq/sandbox"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BUNQ_API_KEY", "api-key-123")
	t.Setenv("BUNQ_BASE_URL", baseURL)
	t.Setenv("BUNQ_KEY_PATH", filepath.Join(dir, "client.pem"))
	t.Setenv("BUNQ_CONTEXT_PATH", filepath.Join(dir, "ctx.json"))
	t.Setenv("BUNQ_CONTEXT_PASSPHRASE", "")
	t.Setenv("BUNQ_DEVICE_DESCRIPTION", "bunqctl-test")
	t.Setenv("BUNQ_APP_NAME", "bunqctl-test")
	t.Setenv("BUNQ_HTTP_TIMEOUT", "5s")
	t.Setenv("BUNQ_SANDBOX_ADDR", "127.0.0.1:0")

	return dir
}

func TestKeygen(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:1/v1")

	out, err := run(t, "keygen")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "client.pem"))

	_, err = run(t, "keygen")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "keygen", "--force")
	assert.NoError(t, err)

	_, err = run(t, "keygen", "--force", "--bits", "1024")
	assert.Error(t, err)
}

func TestLoginStatusUser(t *testing.T) {
	sb, err := sandbox.New(sandbox.Config{APIKey: "api-key-123", OwnerID: 42, DisplayName: "Ada"})
	require.NoError(t, err)

	ts := httptest.NewServer(sb)
	t.Cleanup(ts.Close)

	setupEnv(t, ts.URL+sandbox.BasePath)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "state: fresh")

	out, err = run(t, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "state: live")
	assert.Contains(t, out, "owner: 42")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "state: live")
	assert.Contains(t, out, "owner: 42")
	assert.Contains(t, out, "****")

	out, err = run(t, "user")
	require.NoError(t, err)
	assert.Equal(t, "42 Ada (UserPerson)\n", out)

	assert.Equal(t, 1, sb.Stats().Installations)
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t, "not a url")

	_, err := run(t, "status")
	assert.ErrorContains(t, err, "invalid BUNQ_BASE_URL")
}
