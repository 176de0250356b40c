package handshake

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vitalvas/bunq/logger"
	"github.com/vitalvas/bunq/session"
)

// PublicKeyProvider supplies the client public key sent at installation.
// *keys.KeyPair implements it.
type PublicKeyProvider interface {
	PublicKeyPEM() string
}

// Machine runs handshake steps against a Remote. It holds no context of its
// own; every step takes a context value and returns a new one.
type Machine struct {
	Keys   PublicKeyProvider
	Remote Remote
	Logger *slog.Logger
}

// NewMachine returns a Machine; a nil logger discards output.
func NewMachine(keys PublicKeyProvider, remote Remote, log *slog.Logger) *Machine {
	return &Machine{Keys: keys, Remote: remote, Logger: log}
}

func (m *Machine) log() *slog.Logger {
	return logger.OrDiscard(m.Logger)
}

// Install registers the client public key with the remote. It is skipped
// when sess is already installed.
func (m *Machine) Install(ctx context.Context, sess session.Context) (session.Context, error) {
	if sess.IsInstalled() {
		m.log().Debug("installation skipped", slog.String("state", sess.State().String()))
		return sess, nil
	}

	if err := m.check(sess); err != nil {
		return sess, err
	}

	if m.Keys == nil {
		return sess, fmt.Errorf("%w: no client key", ErrPrecondition)
	}

	inst, err := m.Remote.Install(ctx, m.Keys.PublicKeyPEM())
	if err != nil {
		m.log().Warn("installation failed", slog.Any("error", err))
		return sess, fmt.Errorf("%w: %w", ErrInstallation, err)
	}

	if inst.Token == "" || inst.ServerPublicKey == "" {
		return sess, fmt.Errorf("%w: response without token or server public key", ErrInstallation)
	}

	next := sess
	next.InstallationToken = inst.Token
	next.ServerPublicKey = inst.ServerPublicKey

	m.log().Info("installation completed",
		slog.Int64("installation_id", inst.ID),
		slog.String("token", logger.Redact(inst.Token)),
	)

	return next, nil
}

// Register binds the api key to this installation as a device. It requires
// an installed context and is skipped when sess is already registered.
func (m *Machine) Register(ctx context.Context, sess session.Context, apiKey, description string) (session.Context, error) {
	if sess.IsRegistered() {
		m.log().Debug("device registration skipped", slog.String("state", sess.State().String()))
		return sess, nil
	}

	if !sess.IsInstalled() {
		return sess, fmt.Errorf("%w: register requires an installed context, got %s", ErrPrecondition, sess.State())
	}

	if err := m.check(sess); err != nil {
		return sess, err
	}

	deviceID, err := m.Remote.RegisterDevice(ctx, sess, apiKey, description)
	if err != nil {
		m.log().Warn("device registration failed", slog.Any("error", err))
		return sess, fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	if deviceID == "" {
		return sess, fmt.Errorf("%w: response without device id", ErrRegistration)
	}

	next := sess
	next.DeviceID = deviceID

	m.log().Info("device registered",
		slog.String("device_id", deviceID),
		slog.String("description", description),
	)

	return next, nil
}

// CreateSession opens a session for the registered device. It requires a
// registered context and is skipped when sess is already live.
func (m *Machine) CreateSession(ctx context.Context, sess session.Context, apiKey string) (session.Context, error) {
	if sess.IsLive() {
		m.log().Debug("session creation skipped", slog.String("state", sess.State().String()))
		return sess, nil
	}

	if !sess.IsRegistered() {
		return sess, fmt.Errorf("%w: create session requires a registered context, got %s", ErrPrecondition, sess.State())
	}

	if err := m.check(sess); err != nil {
		return sess, err
	}

	grant, err := m.Remote.CreateSession(ctx, sess, apiKey)
	if err != nil {
		m.log().Warn("session creation failed", slog.Any("error", err))
		return sess, fmt.Errorf("%w: %w", ErrSessionCreation, err)
	}

	if grant.Token == "" || grant.OwnerID == 0 {
		return sess, fmt.Errorf("%w: response without session token or owner id", ErrSessionCreation)
	}

	next := sess
	next.SessionToken = grant.Token
	next.OwnerID = grant.OwnerID

	m.log().Info("session created",
		slog.Int64("session_id", grant.ID),
		slog.Int64("owner_id", grant.OwnerID),
		slog.String("token", logger.Redact(grant.Token)),
	)

	return next, nil
}

// EnsureLive runs the missing suffix of Install, Register and CreateSession
// and stops at the first error. The returned context is the last one that
// was fully committed, so progress made before a failure is kept.
func (m *Machine) EnsureLive(ctx context.Context, sess session.Context, apiKey, description string) (session.Context, error) {
	next, err := m.Install(ctx, sess)
	if err != nil {
		return next, err
	}

	next, err = m.Register(ctx, next, apiKey, description)
	if err != nil {
		return next, err
	}

	return m.CreateSession(ctx, next, apiKey)
}

// check rejects inconsistent contexts before any remote call is made.
func (m *Machine) check(sess session.Context) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	if m.Remote == nil {
		return fmt.Errorf("%w: no remote", ErrPrecondition)
	}

	return nil
}
